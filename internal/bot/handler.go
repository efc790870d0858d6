package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/finance_dashboard/internal/model"
)

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.Message == nil || callback.From == nil {
		return nil
	}
	chatID := callback.Message.Chat.ID
	answer := ""

	profile, ok := b.resolve(ctx, chatID, callback.From.ID)
	if !ok {
		b.answer(callback.ID, answer)
		return nil
	}

	var err error
	switch data := callback.Data; {
	case strings.HasPrefix(data, callbackSent):
		id := strings.TrimPrefix(data, callbackSent)
		if err = b.service.MarkAlertSent(ctx, profile.ID, id); err == nil {
			answer = "Отмечено как отправленное ✅"
			err = b.handleAlerts(ctx, chatID, profile)
		}
	case strings.HasPrefix(data, callbackToggle):
		id := strings.TrimPrefix(data, callbackToggle)
		var active bool
		if active, err = b.service.ToggleAlert(ctx, profile.ID, id); err == nil {
			answer = "Напоминание скрыто"
			if active {
				answer = "Напоминание снова активно"
			}
		}
	case strings.HasPrefix(data, callbackGoal):
		b.chooseGoal(chatID, callback.From.ID, strings.TrimPrefix(data, callbackGoal))
	case strings.HasPrefix(data, callbackPeriod):
		err = b.handleChart(ctx, chatID, profile, strings.TrimPrefix(data, callbackPeriod))
	}

	if err != nil {
		b.sendErrorMessage(chatID, "Не удалось выполнить действие")
		answer = ""
	}
	// Отвечаем на callback, чтобы убрать loading indicator
	b.answer(callback.ID, answer)
	return err
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Warn("failed to answer callback", "error", err)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	if tipo, ok := buttonTypes[text]; ok {
		return b.startTransaction(ctx, message, tipo)
	}

	switch text {
	case buttonSummary, buttonGoals, buttonAlerts, buttonChart:
		profile, ok := b.resolve(ctx, chatID, message.From.ID)
		if !ok {
			return nil
		}
		switch text {
		case buttonSummary:
			return b.handleSummary(ctx, chatID, profile)
		case buttonGoals:
			return b.handleGoals(ctx, chatID, profile)
		case buttonAlerts:
			return b.handleAlerts(ctx, chatID, profile)
		default:
			return b.handleChart(ctx, chatID, profile, "")
		}
	}

	state, exists := b.state(message.From.ID)
	if !exists {
		// Если нет активного состояния, показываем главное меню
		b.send(tgbotapi.NewMessage(chatID, "Выберите действие:"), b.getMainKeyboard())
		return nil
	}
	if state.TransactionType.AffectsGoal() && state.GoalID == "" {
		b.sendErrorMessage(chatID, "Сначала выберите цель")
		return nil
	}

	return b.saveTransaction(ctx, message, state)
}

// startTransaction начинает ввод транзакции; для ahorro и retiro сначала выбирается цель
func (b *Bot) startTransaction(ctx context.Context, message *tgbotapi.Message, tipo model.TransactionType) error {
	chatID := message.Chat.ID
	profile, ok := b.resolve(ctx, chatID, message.From.ID)
	if !ok {
		return nil
	}

	if !tipo.AffectsGoal() {
		b.setState(message.From.ID, &UserState{TransactionType: tipo})
		b.send(tgbotapi.NewMessage(chatID,
			"Введите сумму, категорию и описание в формате:\n1000 Comida Almuerzo"), nil)
		return nil
	}

	snapshot, err := b.service.Snapshot(ctx, profile.ID)
	if err != nil {
		b.sendErrorMessage(chatID, "Ошибка при получении целей")
		return fmt.Errorf("failed to build snapshot: %w", err)
	}
	if len(snapshot.Goals) == 0 {
		b.sendErrorMessage(chatID, "У вас нет целей. Сначала создайте цель в дашборде")
		return nil
	}

	b.setState(message.From.ID, &UserState{TransactionType: tipo})
	b.send(tgbotapi.NewMessage(chatID, "Выберите цель:"), b.getGoalsKeyboard(snapshot.Goals))
	return nil
}

func (b *Bot) chooseGoal(chatID, userID int64, goalID string) {
	state, ok := b.state(userID)
	if !ok || !state.TransactionType.AffectsGoal() {
		b.send(tgbotapi.NewMessage(chatID, "Выберите действие:"), b.getMainKeyboard())
		return
	}
	b.setState(userID, &UserState{TransactionType: state.TransactionType, GoalID: goalID})
	b.send(tgbotapi.NewMessage(chatID, "Введите сумму и описание в формате:\n500 Ahorro de junio"), nil)
}

func (b *Bot) saveTransaction(ctx context.Context, message *tgbotapi.Message, state *UserState) error {
	chatID := message.Chat.ID
	profile, ok := b.resolve(ctx, chatID, message.From.ID)
	if !ok {
		return nil
	}

	transaction, err := parseTransaction(message.Text, state)
	if err != nil {
		b.sendErrorMessage(chatID, err.Error())
		return nil
	}
	transaction.UserID = profile.ID

	result, err := b.service.AddTransaction(ctx, transaction)
	if result == nil {
		b.sendErrorMessage(chatID, "Ошибка при сохранении транзакции")
		return err
	}

	// Очищаем состояние после сохранения транзакции
	b.setState(message.From.ID, nil)

	text := "Транзакция сохранена! ✅"
	if r := result.Reconciliation; r != nil {
		switch {
		case err != nil || len(r.Failed) > 0:
			text += "\nНе удалось обновить цель, попробуйте позже"
		case len(r.Applied) > 0:
			text += "\nНакопления цели обновлены 🎯"
		}
	}
	b.send(tgbotapi.NewMessage(chatID, text), b.getMainKeyboard())
	return err
}

// parseTransaction разбирает "<сумма> [категория] [описание]"; для целей
// категории нет, все после суммы становится описанием.
func parseTransaction(text string, state *UserState) (model.Transaction, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return model.Transaction{}, errors.New("Неверный формат. Используйте: <сумма> <категория> <описание>")
	}

	amount := model.NewAmount(strings.ReplaceAll(fields[0], ",", "."))
	if !amount.IsPositive() {
		return model.Transaction{}, errors.New("Неверный формат суммы. Используйте число, например: 1000.50")
	}

	t := model.Transaction{
		Type:   state.TransactionType,
		Amount: amount,
	}
	rest := fields[1:]
	if state.TransactionType.AffectsGoal() {
		goalID := state.GoalID
		t.GoalID = &goalID
		t.Category = "Ahorro"
	} else if len(rest) > 0 {
		t.Category = rest[0]
		rest = rest[1:]
	}
	t.Description = strings.Join(rest, " ")
	return t, nil
}

package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/finance_dashboard/internal/charts"
	"github.com/ivanoskov/finance_dashboard/internal/log"
	"github.com/ivanoskov/finance_dashboard/internal/model"
	"github.com/ivanoskov/finance_dashboard/internal/repository"
	"github.com/ivanoskov/finance_dashboard/internal/service"
)

// API - методы Telegram Bot API, которыми пользуется бот
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Service - операции дашборда, доступные из чата
type Service interface {
	Snapshot(ctx context.Context, userID string) (*service.Snapshot, error)
	ResolveTelegramUser(ctx context.Context, telegramID int64) (model.UserProfile, error)
	LinkTelegram(ctx context.Context, code string, telegramID int64) (model.UserProfile, error)
	AddTransaction(ctx context.Context, transaction model.Transaction) (*service.TransactionResult, error)
	MarkAlertSent(ctx context.Context, userID, id string) error
	ToggleAlert(ctx context.Context, userID, id string) (bool, error)
}

// UserState хранит незавершенный ввод транзакции
type UserState struct {
	TransactionType model.TransactionType
	GoalID          string
}

type Bot struct {
	api     API
	service Service
	charts  *charts.ChartGenerator
	logger  *log.Logger

	mu     sync.Mutex
	states map[int64]*UserState // состояния пользователей по их ID
}

// NewBot подключается к Telegram по токену
func NewBot(token string, svc Service, logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	return New(api, svc, logger), nil
}

// New создает бота поверх готового клиента API
func New(api API, svc Service, logger *log.Logger) *Bot {
	if logger == nil {
		logger = log.Nop()
	}
	return &Bot{
		api:     api,
		service: svc,
		charts:  charts.NewChartGenerator(),
		logger:  logger.WithComponent("bot"),
		states:  make(map[int64]*UserState),
	}
}

// Start запускает бота в режиме long polling до отмены контекста
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("long polling started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := b.handleUpdate(ctx, update); err != nil {
				// Логируем ошибку, но продолжаем работу
				b.logger.Error("failed to handle update", "update_id", update.UpdateID, "error", err)
			}
		}
	}
}

// HandleWebhook - точка входа для обработки входящих webhook-обновлений
func (b *Bot) HandleWebhook(ctx context.Context, body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("failed to decode update: %w", err)
	}
	return b.handleUpdate(ctx, update)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message == nil || update.Message.From == nil:
		return nil
	case update.Message.IsCommand():
		return b.handleCommand(ctx, update.Message)
	default:
		return b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message.Command() == "start" {
		return b.handleStart(ctx, message)
	}

	profile, ok := b.resolve(ctx, message.Chat.ID, message.From.ID)
	if !ok {
		return nil
	}

	switch message.Command() {
	case "resumen":
		return b.handleSummary(ctx, message.Chat.ID, profile)
	case "metas":
		return b.handleGoals(ctx, message.Chat.ID, profile)
	case "alertas":
		return b.handleAlerts(ctx, message.Chat.ID, profile)
	case "grafico":
		return b.handleChart(ctx, message.Chat.ID, profile, message.CommandArguments())
	default:
		b.send(tgbotapi.NewMessage(message.Chat.ID, "Неизвестная команда. Выберите действие:"), b.getMainKeyboard())
	}
	return nil
}

// handleStart привязывает чат к профилю по одноразовому коду: /start <код>
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	if code := strings.TrimSpace(message.CommandArguments()); code != "" {
		profile, err := b.service.LinkTelegram(ctx, code, message.From.ID)
		if errors.Is(err, repository.ErrExpired) {
			b.sendErrorMessage(chatID, "Код привязки устарел. Получите новый код в профиле")
			return nil
		}
		if err != nil {
			b.logger.WarnContext(ctx, "telegram link failed", "telegram_id", message.From.ID, "error", err)
			b.sendErrorMessage(chatID, "Не удалось привязать профиль. Проверьте код")
			return nil
		}
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Профиль %s привязан! ✅", displayName(profile))), b.getMainKeyboard())
		return nil
	}

	profile, err := b.service.ResolveTelegramUser(ctx, message.From.ID)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID,
			"Добро пожаловать в финансовый дашборд! 💰\n\n"+
				"Чтобы начать, получите код привязки в профиле и отправьте:\n"+
				"/start <код>"), nil)
		return nil
	}

	b.send(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("С возвращением, %s! 💰\n\n", displayName(profile))+
			"Вот что я умею:\n\n"+
			"• /resumen - доходы, расходы и тренды\n"+
			"• /metas - прогресс целей\n"+
			"• /alertas - напоминания на сегодня\n"+
			"• /grafico semana|mes|año - графики\n\n"+
			"Выберите действие:"), b.getMainKeyboard())
	return nil
}

// resolve находит профиль пользователя чата или подсказывает, как его привязать
func (b *Bot) resolve(ctx context.Context, chatID, telegramID int64) (model.UserProfile, bool) {
	profile, err := b.service.ResolveTelegramUser(ctx, telegramID)
	if err != nil {
		b.logger.DebugContext(ctx, "telegram user not linked", "telegram_id", telegramID, "error", err)
		b.sendErrorMessage(chatID, "Профиль не привязан. Отправьте /start <код>")
		return model.UserProfile{}, false
	}
	return profile, true
}

func (b *Bot) handleSummary(ctx context.Context, chatID int64, profile model.UserProfile) error {
	snapshot, err := b.service.Snapshot(ctx, profile.ID)
	if err != nil {
		b.sendErrorMessage(chatID, "Ошибка при формировании сводки")
		return fmt.Errorf("failed to build snapshot: %w", err)
	}
	b.send(tgbotapi.NewMessage(chatID, formatSummary(snapshot)), nil)
	return nil
}

func (b *Bot) handleGoals(ctx context.Context, chatID int64, profile model.UserProfile) error {
	snapshot, err := b.service.Snapshot(ctx, profile.ID)
	if err != nil {
		b.sendErrorMessage(chatID, "Ошибка при получении целей")
		return fmt.Errorf("failed to build snapshot: %w", err)
	}
	b.send(tgbotapi.NewMessage(chatID, formatGoals(snapshot)), nil)

	png, err := b.charts.GoalsChart(snapshot.Goals)
	if err != nil {
		return err
	}
	b.sendPhoto(chatID, png, "goals.png")
	return nil
}

func (b *Bot) handleAlerts(ctx context.Context, chatID int64, profile model.UserProfile) error {
	snapshot, err := b.service.Snapshot(ctx, profile.ID)
	if err != nil {
		b.sendErrorMessage(chatID, "Ошибка при получении напоминаний")
		return fmt.Errorf("failed to build snapshot: %w", err)
	}

	today := snapshot.Alerts.Today
	var markup interface{}
	if today.HasAlerts {
		markup = b.getAlertsKeyboard(today.Alerts)
	}
	b.send(tgbotapi.NewMessage(chatID, formatAlerts(snapshot)), markup)
	return nil
}

func (b *Bot) handleChart(ctx context.Context, chatID int64, profile model.UserProfile, arg string) error {
	period, ok := parsePeriod(arg)
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, "Выберите период:"), b.getPeriodKeyboard())
		return nil
	}

	snapshot, err := b.service.Snapshot(ctx, profile.ID)
	if err != nil {
		b.sendErrorMessage(chatID, "Ошибка при построении графика")
		return fmt.Errorf("failed to build snapshot: %w", err)
	}

	symbol := snapshot.CurrencySymbol()
	series, err := b.charts.IncomeExpenseChart(period, snapshot.Series[period], symbol)
	if err != nil {
		return err
	}
	pie, err := b.charts.CategoryPieChart(period, snapshot.Categories[period], symbol)
	if err != nil {
		return err
	}
	if series == nil && pie == nil {
		b.send(tgbotapi.NewMessage(chatID, "Нет данных за выбранный период"), nil)
		return nil
	}

	b.sendPhoto(chatID, series, "income_expenses.png")
	b.sendPhoto(chatID, pie, "categories.png")
	return nil
}

func (b *Bot) send(msg tgbotapi.MessageConfig, markup interface{}) {
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", "chat_id", msg.ChatID, "error", err)
	}
}

func (b *Bot) sendPhoto(chatID int64, png []byte, name string) {
	if png == nil {
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: png})
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Error("failed to send photo", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, "❌ "+text), nil)
}

func (b *Bot) state(userID int64) (*UserState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.states[userID]
	return s, ok
}

func (b *Bot) setState(userID int64, s *UserState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s == nil {
		delete(b.states, userID)
		return
	}
	b.states[userID] = s
}

func displayName(p model.UserProfile) string {
	if p.Username != "" {
		return p.Username
	}
	if p.Email != "" {
		return p.Email
	}
	return p.ID
}

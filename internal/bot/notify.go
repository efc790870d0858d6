package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/finance_dashboard/internal/events"
	"github.com/ivanoskov/finance_dashboard/internal/log"
	"github.com/ivanoskov/finance_dashboard/internal/model"
	"github.com/ivanoskov/finance_dashboard/internal/repository"
)

// ProfileSource находит профиль по id пользователя
type ProfileSource interface {
	Profile(ctx context.Context, userID string) (model.UserProfile, error)
}

// GoalNotifier пишет в чат пользователя об изменении накоплений цели
type GoalNotifier struct {
	api      API
	profiles ProfileSource
	logger   *log.Logger
}

func NewGoalNotifier(api API, profiles ProfileSource, logger *log.Logger) *GoalNotifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &GoalNotifier{api: api, profiles: profiles, logger: logger.WithComponent("notifier")}
}

// Handle отправляет уведомление. Пользователь без профиля или без
// привязанного чата пропускается без ошибки, как и сообщение, окончательно
// отвергнутое Telegram. Остальные ошибки возвращаются для повторной доставки.
func (n *GoalNotifier) Handle(ctx context.Context, msg *events.GoalMessage) error {
	if msg.Type != events.TypeGoalReconciled {
		n.logger.DebugContext(ctx, "unsupported event skipped", "type", msg.Type)
		return nil
	}

	profile, err := n.profiles.Profile(ctx, msg.UserID)
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
		n.logger.WarnContext(ctx, "goal event for unknown user", "user_id", msg.UserID)
		return nil
	}
	if err != nil {
		return err
	}
	if profile.TelegramID == nil {
		n.logger.DebugContext(ctx, "user has no telegram chat", "user_id", msg.UserID)
		return nil
	}

	text := formatGoalEvent(msg, model.CurrencySymbol(profile.CurrencyCode()))
	if _, err := n.api.Send(tgbotapi.NewMessage(*profile.TelegramID, text)); err != nil {
		if rejected(err) {
			n.logger.WarnContext(ctx, "goal notification rejected by telegram", "user_id", msg.UserID, "error", err)
			return nil
		}
		return fmt.Errorf("failed to send goal notification: %w", err)
	}
	n.logger.InfoContext(ctx, "goal notification sent", "user_id", msg.UserID, "goal_id", msg.GoalID)
	return nil
}

// rejected сообщает, что Telegram отверг запрос окончательно: ответ 4xx, кроме 429
func rejected(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests
}

func formatGoalEvent(msg *events.GoalMessage, symbol string) string {
	name := msg.GoalName
	if name == "" {
		name = "без названия"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 Цель «%s» обновлена\nНакоплено: %s", name, money(symbol, model.NewAmount(msg.SavedAmount).Decimal))
	if msg.TargetAmount != "" {
		target := model.NewAmount(msg.TargetAmount).Decimal
		fmt.Fprintf(&sb, " из %s", money(symbol, target))
		if saved := model.NewAmount(msg.SavedAmount).Decimal; target.IsPositive() && saved.GreaterThanOrEqual(target) {
			sb.WriteString("\n✅ Цель достигнута!")
		}
	}
	return sb.String()
}

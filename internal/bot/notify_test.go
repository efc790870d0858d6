package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanoskov/finance_dashboard/internal/events"
	"github.com/ivanoskov/finance_dashboard/internal/model"
	"github.com/ivanoskov/finance_dashboard/internal/repository"
)

type profileFunc func(ctx context.Context, userID string) (model.UserProfile, error)

func (f profileFunc) Profile(ctx context.Context, userID string) (model.UserProfile, error) {
	return f(ctx, userID)
}

func goalEvent() *events.GoalMessage {
	return &events.GoalMessage{
		Type:         events.TypeGoalReconciled,
		RunID:        "run-1",
		UserID:       "u1",
		GoalID:       "g1",
		GoalName:     "Viaje",
		SavedAmount:  "1000",
		TargetAmount: "1000",
	}
}

func TestGoalNotifierSendsToLinkedChat(t *testing.T) {
	api := newMockAPI()
	chat := telegramID
	notifier := NewGoalNotifier(api, profileFunc(func(ctx context.Context, userID string) (model.UserProfile, error) {
		return model.UserProfile{ID: userID, Currency: "PEN", TelegramID: &chat}, nil
	}), nil)

	require.NoError(t, notifier.Handle(context.Background(), goalEvent()))

	msg := api.LastMessage()
	assert.Equal(t, telegramID, msg.ChatID)
	assert.Contains(t, msg.Text, "«Viaje»")
	assert.Contains(t, msg.Text, "S/1000.00 из S/1000.00")
	assert.Contains(t, msg.Text, "Цель достигнута")
}

func TestGoalNotifierSkipsUnlinkedAndUnknownUsers(t *testing.T) {
	api := newMockAPI()
	notifier := NewGoalNotifier(api, profileFunc(func(ctx context.Context, userID string) (model.UserProfile, error) {
		if userID == "missing" {
			return model.UserProfile{}, fmt.Errorf("failed to get profile: %w", repository.ErrNotFound)
		}
		return model.UserProfile{ID: userID}, nil
	}), nil)

	require.NoError(t, notifier.Handle(context.Background(), goalEvent()))

	unknown := goalEvent()
	unknown.UserID = "missing"
	require.NoError(t, notifier.Handle(context.Background(), unknown))

	other := goalEvent()
	other.Type = "goal.deleted"
	require.NoError(t, notifier.Handle(context.Background(), other))

	assert.Empty(t, api.Texts())
}

func TestGoalNotifierRetriesOnLookupFailure(t *testing.T) {
	notifier := NewGoalNotifier(newMockAPI(), profileFunc(func(ctx context.Context, userID string) (model.UserProfile, error) {
		return model.UserProfile{}, errors.New("timeout")
	}), nil)

	assert.Error(t, notifier.Handle(context.Background(), goalEvent()))
}

func TestFormatGoalEventWithoutTarget(t *testing.T) {
	msg := goalEvent()
	msg.GoalName = ""
	msg.TargetAmount = ""
	msg.SavedAmount = "12.5"

	text := formatGoalEvent(msg, "$")
	assert.Contains(t, text, "«без названия»")
	assert.Contains(t, text, "Накоплено: $12.50")
	assert.NotContains(t, text, " из ")
}

func TestGoalNotifierDropsRejectedMessages(t *testing.T) {
	chat := telegramID
	profiles := profileFunc(func(ctx context.Context, userID string) (model.UserProfile, error) {
		return model.UserProfile{ID: userID, TelegramID: &chat}, nil
	})

	blocked := newMockAPI()
	blocked.SendErr = &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
	assert.NoError(t, NewGoalNotifier(blocked, profiles, nil).Handle(context.Background(), goalEvent()))

	limited := newMockAPI()
	limited.SendErr = &tgbotapi.Error{Code: 429, Message: "Too Many Requests: retry after 5"}
	assert.Error(t, NewGoalNotifier(limited, profiles, nil).Handle(context.Background(), goalEvent()))

	offline := newMockAPI()
	offline.SendErr = errors.New("connection reset")
	assert.Error(t, NewGoalNotifier(offline, profiles, nil).Handle(context.Background(), goalEvent()))
}

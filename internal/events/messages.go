package events

import (
	"encoding/json"
	"time"

	"github.com/ivanoskov/finance_dashboard/internal/goals"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// TypeGoalReconciled - накопления цели изменены транзакцией
const TypeGoalReconciled = "goal.reconciled"

// GoalMessage - событие об одной обновленной цели. Получатель сам
// перечитывает цель, если ему нужно больше полей.
type GoalMessage struct {
	Type           string    `json:"type"`
	RunID          string    `json:"run_id"`
	UserID         string    `json:"user_id"`
	GoalID         string    `json:"goal_id"`
	GoalName       string    `json:"goal_name,omitempty"`
	SavedAmount    string    `json:"saved_amount"`
	TargetAmount   string    `json:"target_amount,omitempty"`
	TransactionIDs []string  `json:"transaction_ids"`
	Timestamp      time.Time `json:"timestamp"`
}

// MessagesFromResult строит по событию на каждую сохраненную цель.
// Имя и целевая сумма берутся из перечитанных целей, если перечитывание удалось.
func MessagesFromResult(userID string, result *goals.Result, now time.Time) []GoalMessage {
	if result == nil || len(result.Applied) == 0 {
		return nil
	}

	byID := make(map[string]model.Goal, len(result.Goals))
	for _, g := range result.Goals {
		byID[g.ID] = g
	}

	messages := make([]GoalMessage, 0, len(result.Applied))
	for _, u := range result.Applied {
		msg := GoalMessage{
			Type:           TypeGoalReconciled,
			RunID:          result.RunID,
			UserID:         userID,
			GoalID:         u.GoalID,
			SavedAmount:    u.NewSavedAmount.String(),
			TransactionIDs: u.TransactionIDs,
			Timestamp:      now.UTC(),
		}
		if g, ok := byID[u.GoalID]; ok {
			msg.GoalName = g.Name
			msg.TargetAmount = g.TargetAmount.String()
		}
		messages = append(messages, msg)
	}
	return messages
}

func (m GoalMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// GoalMessageFromJSON разбирает тело сообщения
func GoalMessageFromJSON(data []byte) (*GoalMessage, error) {
	var msg GoalMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

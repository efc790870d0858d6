package service

import (
	"context"
	"sync"
	"time"

	"github.com/ivanoskov/finance_dashboard/internal/goals"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// MockRepository - заглушка хранилища. Незаданные функции возвращают нули.
type MockRepository struct {
	GetTransactionsFunc   func(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error)
	CreateTransactionFunc func(ctx context.Context, transaction model.Transaction) (model.Transaction, error)
	UpdateTransactionFunc func(ctx context.Context, userID, id string, fields map[string]interface{}) error
	DeleteTransactionFunc func(ctx context.Context, userID, id string) error

	GetGoalsFunc   func(ctx context.Context, userID string) ([]model.Goal, error)
	CreateGoalFunc func(ctx context.Context, goal model.Goal) (model.Goal, error)
	UpdateGoalFunc func(ctx context.Context, userID, id string, fields map[string]interface{}) error
	DeleteGoalFunc func(ctx context.Context, userID, id string) error

	GetAlertsFunc   func(ctx context.Context, userID string) ([]model.Alert, error)
	CreateAlertFunc func(ctx context.Context, alert model.Alert) (model.Alert, error)
	UpdateAlertFunc func(ctx context.Context, userID, id string, fields map[string]interface{}) error
	DeleteAlertFunc func(ctx context.Context, userID, id string) error

	GetProfileFunc             func(ctx context.Context, userID string) (model.UserProfile, error)
	GetProfileByTelegramIDFunc func(ctx context.Context, telegramID int64) (model.UserProfile, error)
	SetLinkCodeFunc            func(ctx context.Context, userID, code string, expiresAt time.Time) error
	ClaimLinkCodeFunc          func(ctx context.Context, code string, telegramID int64, now time.Time) (model.UserProfile, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockRepository) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *MockRepository) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockRepository) GetTransactions(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error) {
	m.record("GetTransactions")
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, userID, filter)
	}
	return nil, nil
}

func (m *MockRepository) CreateTransaction(ctx context.Context, transaction model.Transaction) (model.Transaction, error) {
	m.record("CreateTransaction")
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, transaction)
	}
	transaction.ID = "tx-new"
	return transaction, nil
}

func (m *MockRepository) UpdateTransaction(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	m.record("UpdateTransaction")
	if m.UpdateTransactionFunc != nil {
		return m.UpdateTransactionFunc(ctx, userID, id, fields)
	}
	return nil
}

func (m *MockRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	m.record("DeleteTransaction")
	if m.DeleteTransactionFunc != nil {
		return m.DeleteTransactionFunc(ctx, userID, id)
	}
	return nil
}

func (m *MockRepository) GetGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	m.record("GetGoals")
	if m.GetGoalsFunc != nil {
		return m.GetGoalsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRepository) CreateGoal(ctx context.Context, goal model.Goal) (model.Goal, error) {
	m.record("CreateGoal")
	if m.CreateGoalFunc != nil {
		return m.CreateGoalFunc(ctx, goal)
	}
	goal.ID = "goal-new"
	return goal, nil
}

func (m *MockRepository) UpdateGoal(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	m.record("UpdateGoal")
	if m.UpdateGoalFunc != nil {
		return m.UpdateGoalFunc(ctx, userID, id, fields)
	}
	return nil
}

func (m *MockRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	m.record("DeleteGoal")
	if m.DeleteGoalFunc != nil {
		return m.DeleteGoalFunc(ctx, userID, id)
	}
	return nil
}

func (m *MockRepository) GetAlerts(ctx context.Context, userID string) ([]model.Alert, error) {
	m.record("GetAlerts")
	if m.GetAlertsFunc != nil {
		return m.GetAlertsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockRepository) CreateAlert(ctx context.Context, alert model.Alert) (model.Alert, error) {
	m.record("CreateAlert")
	if m.CreateAlertFunc != nil {
		return m.CreateAlertFunc(ctx, alert)
	}
	alert.ID = "alert-new"
	return alert, nil
}

func (m *MockRepository) UpdateAlert(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	m.record("UpdateAlert")
	if m.UpdateAlertFunc != nil {
		return m.UpdateAlertFunc(ctx, userID, id, fields)
	}
	return nil
}

func (m *MockRepository) DeleteAlert(ctx context.Context, userID, id string) error {
	m.record("DeleteAlert")
	if m.DeleteAlertFunc != nil {
		return m.DeleteAlertFunc(ctx, userID, id)
	}
	return nil
}

func (m *MockRepository) GetProfile(ctx context.Context, userID string) (model.UserProfile, error) {
	m.record("GetProfile")
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, userID)
	}
	return model.UserProfile{ID: userID}, nil
}

func (m *MockRepository) GetProfileByTelegramID(ctx context.Context, telegramID int64) (model.UserProfile, error) {
	m.record("GetProfileByTelegramID")
	if m.GetProfileByTelegramIDFunc != nil {
		return m.GetProfileByTelegramIDFunc(ctx, telegramID)
	}
	return model.UserProfile{}, nil
}

func (m *MockRepository) SetLinkCode(ctx context.Context, userID, code string, expiresAt time.Time) error {
	m.record("SetLinkCode")
	if m.SetLinkCodeFunc != nil {
		return m.SetLinkCodeFunc(ctx, userID, code, expiresAt)
	}
	return nil
}

func (m *MockRepository) ClaimLinkCode(ctx context.Context, code string, telegramID int64, now time.Time) (model.UserProfile, error) {
	m.record("ClaimLinkCode")
	if m.ClaimLinkCodeFunc != nil {
		return m.ClaimLinkCodeFunc(ctx, code, telegramID, now)
	}
	return model.UserProfile{}, nil
}

// MockPublisher запоминает опубликованные итоги сверки
type MockPublisher struct {
	Err     error
	results []*goals.Result
}

func (m *MockPublisher) PublishReconciliation(ctx context.Context, userID string, result *goals.Result) error {
	m.results = append(m.results, result)
	return m.Err
}

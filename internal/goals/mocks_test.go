package goals

import (
	"context"
	"sync"

	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// MockStore - заглушка хранилища целей
type MockStore struct {
	UpdateGoalFunc func(ctx context.Context, userID, id string, fields map[string]interface{}) error
	GetGoalsFunc   func(ctx context.Context, userID string) ([]model.Goal, error)

	mu      sync.Mutex
	updates map[string]map[string]interface{}
	reloads int
}

func (m *MockStore) UpdateGoal(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	if m.updates == nil {
		m.updates = make(map[string]map[string]interface{})
	}
	m.updates[id] = fields
	m.mu.Unlock()

	if m.UpdateGoalFunc != nil {
		return m.UpdateGoalFunc(ctx, userID, id, fields)
	}
	return nil
}

func (m *MockStore) GetGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	m.mu.Lock()
	m.reloads++
	m.mu.Unlock()

	if m.GetGoalsFunc != nil {
		return m.GetGoalsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockStore) Reloads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloads
}

package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/finance_dashboard/internal/model"
	"github.com/ivanoskov/finance_dashboard/internal/service"
)

// MockAPI запоминает все отправленные сообщения
type MockAPI struct {
	// SendErr возвращается из Send
	SendErr error

	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	stopped  bool
}

func newMockAPI() *MockAPI {
	return &MockAPI{updates: make(chan tgbotapi.Update, 10)}
}

func (m *MockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, c)
	return tgbotapi.Message{}, m.SendErr
}

func (m *MockAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *MockAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updates
}

func (m *MockAPI) StopReceivingUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// Texts возвращает тексты отправленных сообщений
func (m *MockAPI) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var texts []string
	for _, c := range m.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func (m *MockAPI) Photos() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.sent {
		if _, ok := c.(tgbotapi.PhotoConfig); ok {
			n++
		}
	}
	return n
}

func (m *MockAPI) LastMessage() tgbotapi.MessageConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if msg, ok := m.sent[i].(tgbotapi.MessageConfig); ok {
			return msg
		}
	}
	return tgbotapi.MessageConfig{}
}

type MockService struct {
	SnapshotFunc            func(ctx context.Context, userID string) (*service.Snapshot, error)
	ResolveTelegramUserFunc func(ctx context.Context, telegramID int64) (model.UserProfile, error)
	LinkTelegramFunc        func(ctx context.Context, code string, telegramID int64) (model.UserProfile, error)
	AddTransactionFunc      func(ctx context.Context, transaction model.Transaction) (*service.TransactionResult, error)
	MarkAlertSentFunc       func(ctx context.Context, userID, id string) error
	ToggleAlertFunc         func(ctx context.Context, userID, id string) (bool, error)
}

func (m *MockService) Snapshot(ctx context.Context, userID string) (*service.Snapshot, error) {
	return m.SnapshotFunc(ctx, userID)
}

func (m *MockService) ResolveTelegramUser(ctx context.Context, telegramID int64) (model.UserProfile, error) {
	return m.ResolveTelegramUserFunc(ctx, telegramID)
}

func (m *MockService) LinkTelegram(ctx context.Context, code string, telegramID int64) (model.UserProfile, error) {
	return m.LinkTelegramFunc(ctx, code, telegramID)
}

func (m *MockService) AddTransaction(ctx context.Context, transaction model.Transaction) (*service.TransactionResult, error) {
	return m.AddTransactionFunc(ctx, transaction)
}

func (m *MockService) MarkAlertSent(ctx context.Context, userID, id string) error {
	return m.MarkAlertSentFunc(ctx, userID, id)
}

func (m *MockService) ToggleAlert(ctx context.Context, userID, id string) (bool, error) {
	return m.ToggleAlertFunc(ctx, userID, id)
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ivanoskov/finance_dashboard/internal/model"
)

var (
	// ErrInvalidID - пустой идентификатор, запрос не отправляется
	ErrInvalidID = errors.New("invalid id")
	// ErrNotFound - запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrExpired - код привязки просрочен
	ErrExpired = errors.New("link code expired")
)

// Таблицы Supabase
const (
	tableTransactions = "transactions"
	tableGoals        = "financial_goals"
	tableAlerts       = "alerts"
	tableUsers        = "users"
)

// Изменения и удаления затрагивают только записи userID. Чужая запись
// неотличима от отсутствующей: ErrNotFound.
type TransactionRepository interface {
	GetTransactions(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, transaction model.Transaction) (model.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, fields map[string]interface{}) error
	DeleteTransaction(ctx context.Context, userID, id string) error
}

type GoalRepository interface {
	GetGoals(ctx context.Context, userID string) ([]model.Goal, error)
	CreateGoal(ctx context.Context, goal model.Goal) (model.Goal, error)
	UpdateGoal(ctx context.Context, userID, id string, fields map[string]interface{}) error
	DeleteGoal(ctx context.Context, userID, id string) error
}

type AlertRepository interface {
	GetAlerts(ctx context.Context, userID string) ([]model.Alert, error)
	CreateAlert(ctx context.Context, alert model.Alert) (model.Alert, error)
	UpdateAlert(ctx context.Context, userID, id string, fields map[string]interface{}) error
	DeleteAlert(ctx context.Context, userID, id string) error
}

type UserRepository interface {
	GetProfile(ctx context.Context, userID string) (model.UserProfile, error)
	GetProfileByTelegramID(ctx context.Context, telegramID int64) (model.UserProfile, error)
	SetLinkCode(ctx context.Context, userID, code string, expiresAt time.Time) error
	// ClaimLinkCode привязывает чат к профилю, выдавшему код, и гасит код
	ClaimLinkCode(ctx context.Context, code string, telegramID int64, now time.Time) (model.UserProfile, error)
}

// Repository - все хранилища дашборда
type Repository interface {
	TransactionRepository
	GoalRepository
	AlertRepository
	UserRepository
}

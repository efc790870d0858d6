package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/ivanoskov/finance_dashboard/internal/log"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

const dateLayout = "2006-01-02"

type SupabaseRepository struct {
	client *supabase.Client
	logger *log.Logger
}

var _ Repository = (*SupabaseRepository)(nil)

func NewSupabaseRepository(url, key string, logger *log.Logger) (*SupabaseRepository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	if logger == nil {
		logger = log.Nop()
	}

	return &SupabaseRepository{
		client: client,
		logger: logger.WithComponent("repository"),
	}, nil
}

// GetTransactions возвращает транзакции пользователя, новые первыми.
// Нижняя граница дат и категории фильтруются в PostgREST, остальное на клиенте:
// фильтр PostgREST хранит одно условие на колонку.
func (r *SupabaseRepository) GetTransactions(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error) {
	if err := checkID(ctx, userID); err != nil {
		return nil, err
	}

	query := r.client.From(tableTransactions).
		Select("*", "", false).
		Eq("user_id", userID)

	ranged := filter.StartDate != nil && filter.EndDate != nil
	if ranged {
		query = query.Gte("date", filter.StartDate.Format(dateLayout))
	}
	if filter.Category != "" {
		query = query.Ilike("category", filter.Category)
	}
	if filter.Subcategory != "" {
		query = query.Ilike("subcategory", filter.Subcategory)
	}

	query = query.Order("date", &postgrest.OrderOpts{Ascending: false})
	if filter.Limit > 0 && !ranged {
		query = query.Limit(filter.Limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	var transactions []model.Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("failed to parse transactions: %w", err)
	}

	result := transactions[:0]
	for _, t := range transactions {
		if filter.Matches(t) {
			result = append(result, t)
		}
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	r.logger.DebugContext(ctx, "transactions fetched", "user_id", userID, "count", len(result))
	return result, nil
}

func (r *SupabaseRepository) CreateTransaction(ctx context.Context, transaction model.Transaction) (model.Transaction, error) {
	if err := checkID(ctx, transaction.UserID); err != nil {
		return model.Transaction{}, err
	}
	// id назначает сервер
	transaction.ID = ""
	transaction.CreatedAt = nil

	var created []model.Transaction
	if err := r.insert(tableTransactions, transaction, &created); err != nil {
		return model.Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}
	if len(created) == 0 {
		return model.Transaction{}, fmt.Errorf("failed to create transaction: %w", ErrNotFound)
	}

	r.logger.InfoContext(ctx, "transaction created", "id", created[0].ID, "tipo", string(created[0].Type))
	return created[0], nil
}

func (r *SupabaseRepository) UpdateTransaction(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	if err := r.update(ctx, tableTransactions, userID, id, fields); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := r.delete(ctx, tableTransactions, userID, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) GetGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	if err := checkID(ctx, userID); err != nil {
		return nil, err
	}

	data, _, err := r.client.From(tableGoals).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("deadline", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get goals: %w", err)
	}

	var goals []model.Goal
	if err := json.Unmarshal(data, &goals); err != nil {
		return nil, fmt.Errorf("failed to parse goals: %w", err)
	}
	return goals, nil
}

func (r *SupabaseRepository) CreateGoal(ctx context.Context, goal model.Goal) (model.Goal, error) {
	if err := checkID(ctx, goal.UserID); err != nil {
		return model.Goal{}, err
	}
	goal.ID = ""

	var created []model.Goal
	if err := r.insert(tableGoals, goal, &created); err != nil {
		return model.Goal{}, fmt.Errorf("failed to create goal: %w", err)
	}
	if len(created) == 0 {
		return model.Goal{}, fmt.Errorf("failed to create goal: %w", ErrNotFound)
	}

	r.logger.InfoContext(ctx, "goal created", "id", created[0].ID)
	return created[0], nil
}

func (r *SupabaseRepository) UpdateGoal(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	if err := r.update(ctx, tableGoals, userID, id, fields); err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := r.delete(ctx, tableGoals, userID, id); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

// GetAlerts возвращает напоминания, ближайшие сроки первыми
func (r *SupabaseRepository) GetAlerts(ctx context.Context, userID string) ([]model.Alert, error) {
	if err := checkID(ctx, userID); err != nil {
		return nil, err
	}

	data, _, err := r.client.From(tableAlerts).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("due_date", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}

	var alerts []model.Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, fmt.Errorf("failed to parse alerts: %w", err)
	}
	return alerts, nil
}

func (r *SupabaseRepository) CreateAlert(ctx context.Context, alert model.Alert) (model.Alert, error) {
	if err := checkID(ctx, alert.UserID); err != nil {
		return model.Alert{}, err
	}
	alert.ID = ""

	var created []model.Alert
	if err := r.insert(tableAlerts, alert, &created); err != nil {
		return model.Alert{}, fmt.Errorf("failed to create alert: %w", err)
	}
	if len(created) == 0 {
		return model.Alert{}, fmt.Errorf("failed to create alert: %w", ErrNotFound)
	}
	return created[0], nil
}

func (r *SupabaseRepository) UpdateAlert(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	if err := r.update(ctx, tableAlerts, userID, id, fields); err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) DeleteAlert(ctx context.Context, userID, id string) error {
	if err := r.delete(ctx, tableAlerts, userID, id); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) GetProfile(ctx context.Context, userID string) (model.UserProfile, error) {
	if err := checkID(ctx, userID); err != nil {
		return model.UserProfile{}, err
	}
	profile, err := r.profileBy("id", userID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// GetProfileByTelegramID ищет профиль, привязанный к чату Telegram
func (r *SupabaseRepository) GetProfileByTelegramID(ctx context.Context, telegramID int64) (model.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return model.UserProfile{}, err
	}
	if telegramID == 0 {
		return model.UserProfile{}, ErrInvalidID
	}
	profile, err := r.profileBy("telegram_id", strconv.FormatInt(telegramID, 10))
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to get profile by telegram id: %w", err)
	}
	return profile, nil
}

// SetLinkCode сохраняет код привязки чата. Новый код заменяет прежний.
func (r *SupabaseRepository) SetLinkCode(ctx context.Context, userID, code string, expiresAt time.Time) error {
	if err := checkOwned(ctx, userID, code); err != nil {
		return err
	}

	data, _, err := r.client.From(tableUsers).
		Update(map[string]interface{}{
			"link_code":            code,
			"link_code_expires_at": expiresAt.UTC().Format(time.RFC3339),
		}, "representation", "").
		Eq("id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to set link code: %w", err)
	}
	if err := requireRows(data); err != nil {
		return fmt.Errorf("failed to set link code: %w", err)
	}
	return nil
}

// ClaimLinkCode привязывает чат к профилю с этим кодом и отвязывает его от
// прежнего профиля. Код гасится условным обновлением по link_code: из двух
// одновременных попыток проходит одна.
func (r *SupabaseRepository) ClaimLinkCode(ctx context.Context, code string, telegramID int64, now time.Time) (model.UserProfile, error) {
	if err := checkID(ctx, code); err != nil {
		return model.UserProfile{}, err
	}
	if telegramID == 0 {
		return model.UserProfile{}, ErrInvalidID
	}

	var holders []struct {
		ID        string     `json:"id"`
		ExpiresAt *time.Time `json:"link_code_expires_at"`
	}
	data, _, err := r.client.From(tableUsers).
		Select("id,link_code_expires_at", "", false).
		Eq("link_code", code).
		Limit(1, "").
		Execute()
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to link telegram: %w", err)
	}
	if err := json.Unmarshal(data, &holders); err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	if len(holders) == 0 {
		return model.UserProfile{}, fmt.Errorf("failed to link telegram: %w", ErrNotFound)
	}
	userID := holders[0].ID
	if holders[0].ExpiresAt == nil || !holders[0].ExpiresAt.After(now) {
		return model.UserProfile{}, fmt.Errorf("failed to link telegram: %w", ErrExpired)
	}

	chat := strconv.FormatInt(telegramID, 10)
	if _, _, err := r.client.From(tableUsers).
		Update(map[string]interface{}{"telegram_id": nil}, "minimal", "").
		Eq("telegram_id", chat).
		Neq("id", userID).
		Execute(); err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to release telegram chat: %w", err)
	}

	data, _, err = r.client.From(tableUsers).
		Update(map[string]interface{}{
			"telegram_id":          telegramID,
			"link_code":            nil,
			"link_code_expires_at": nil,
		}, "representation", "").
		Eq("id", userID).
		Eq("link_code", code).
		Execute()
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to link telegram: %w", err)
	}
	var profiles []model.UserProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	if len(profiles) == 0 {
		return model.UserProfile{}, fmt.Errorf("failed to link telegram: %w", ErrNotFound)
	}

	r.logger.InfoContext(ctx, "telegram linked", "user_id", userID, "telegram_id", telegramID)
	return profiles[0], nil
}

func (r *SupabaseRepository) profileBy(column, value string) (model.UserProfile, error) {
	data, _, err := r.client.From(tableUsers).
		Select("*", "", false).
		Eq(column, value).
		Limit(1, "").
		Execute()
	if err != nil {
		return model.UserProfile{}, err
	}

	var profiles []model.UserProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	if len(profiles) == 0 {
		return model.UserProfile{}, ErrNotFound
	}
	return profiles[0], nil
}

func (r *SupabaseRepository) insert(table string, value, dest interface{}) error {
	data, _, err := r.client.From(table).
		Insert(value, false, "", "representation", "").
		Execute()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *SupabaseRepository) update(ctx context.Context, table, userID, id string, fields map[string]interface{}) error {
	if err := checkOwned(ctx, userID, id); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	data, _, err := r.client.From(table).
		Update(fields, "representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return err
	}
	if err := requireRows(data); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "row updated", "table", table, "id", id, "user_id", userID, "fields", len(fields))
	return nil
}

func (r *SupabaseRepository) delete(ctx context.Context, table, userID, id string) error {
	if err := checkOwned(ctx, userID, id); err != nil {
		return err
	}

	data, _, err := r.client.From(table).
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return err
	}
	if err := requireRows(data); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "row deleted", "table", table, "id", id, "user_id", userID)
	return nil
}

// requireRows проверяет, что PostgREST вернул хотя бы одну запись
func requireRows(data []byte) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func checkID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return nil
}

func checkOwned(ctx context.Context, userID, id string) error {
	if err := checkID(ctx, userID); err != nil {
		return err
	}
	return checkID(ctx, id)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ivanoskov/finance_dashboard/internal/log"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// Колонки, которые разрешено менять частичным обновлением
var updatableColumns = map[string]map[string]bool{
	tableTransactions: {
		"description": true, "amount": true, "tipo": true, "category": true,
		"subcategory": true, "date": true, "goal_id": true,
	},
	tableGoals: {
		"goal_name": true, "target_amount": true, "saved_amount": true,
		"deadline": true, "description": true,
	},
	tableAlerts: {
		"title": true, "message": true, "alert_type": true, "due_date": true,
		"threshold": true, "active": true, "enviado": true,
	},
}

const (
	transactionColumns = "id, user_id, description, amount, tipo, category, subcategory, date, goal_id, created_at"
	goalColumns        = "id, user_id, goal_name, target_amount, saved_amount, deadline, description"
	alertColumns       = "id, user_id, title, message, alert_type, due_date, threshold, active, enviado"
	userColumns        = "id, auth_user_id, username, email, currency, photo_url, telegram_id, updated_at"
)

// SQLiteRepository - локальное хранилище с той же схемой, что и в Supabase.
// Нужно для запуска без облака и для интеграционных тестов.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite допускает одного писателя
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	if logger == nil {
		logger = log.Nop()
	}
	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent("repository"),
		now:    time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetTransactions возвращает транзакции пользователя, новые первыми.
// Диапазон дат применяется только когда заданы обе границы.
func (r *SQLiteRepository) GetTransactions(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error) {
	if err := checkID(ctx, userID); err != nil {
		return nil, err
	}

	query := "SELECT " + transactionColumns + " FROM " + tableTransactions + " WHERE user_id = ?"
	args := []interface{}{userID}

	if filter.StartDate != nil && filter.EndDate != nil {
		query += " AND date >= ? AND date <= ?"
		args = append(args, model.DateOf(*filter.StartDate).String(), model.DateOf(*filter.EndDate).String())
	}
	if filter.Category != "" {
		query += " AND LOWER(category) = LOWER(?)"
		args = append(args, filter.Category)
	}
	if filter.Subcategory != "" {
		query += " AND LOWER(subcategory) = LOWER(?)"
		args = append(args, filter.Subcategory)
	}
	query += " ORDER BY date DESC, created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transactions: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	r.logger.DebugContext(ctx, "transactions fetched", "user_id", userID, "count", len(transactions))
	return transactions, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, transaction model.Transaction) (model.Transaction, error) {
	if err := checkID(ctx, transaction.UserID); err != nil {
		return model.Transaction{}, err
	}
	transaction.ID = uuid.NewString()
	created := r.now().UTC().Truncate(time.Second)
	transaction.CreatedAt = &created

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO "+tableTransactions+" ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		transaction.ID, transaction.UserID, transaction.Description, sqlValue(transaction.Amount),
		string(transaction.Type), transaction.Category, transaction.Subcategory, sqlValue(transaction.Date),
		nullString(transaction.LinkedGoal()), created.Format(time.RFC3339),
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "transaction created", "id", transaction.ID, "tipo", string(transaction.Type))
	return transaction, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	if err := r.update(ctx, tableTransactions, userID, id, fields); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := r.delete(ctx, tableTransactions, userID, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	if err := checkID(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+goalColumns+" FROM "+tableGoals+" WHERE user_id = ? ORDER BY deadline IS NULL, deadline",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		var (
			g             model.Goal
			target, saved string
			deadline      sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &target, &saved, &deadline, &g.Description); err != nil {
			return nil, fmt.Errorf("failed to parse goals: %w", err)
		}
		g.TargetAmount = model.NewAmount(target)
		g.SavedAmount = model.NewAmount(saved)
		g.Deadline = parseNullDate(deadline)
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get goals: %w", err)
	}
	return goals, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, goal model.Goal) (model.Goal, error) {
	if err := checkID(ctx, goal.UserID); err != nil {
		return model.Goal{}, err
	}
	goal.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO "+tableGoals+" ("+goalColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		goal.ID, goal.UserID, goal.Name, sqlValue(goal.TargetAmount), sqlValue(goal.SavedAmount),
		sqlValue(goal.Deadline), goal.Description,
	)
	if err != nil {
		return model.Goal{}, fmt.Errorf("failed to create goal: %w", err)
	}

	r.logger.InfoContext(ctx, "goal created", "id", goal.ID)
	return goal, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	if err := r.update(ctx, tableGoals, userID, id, fields); err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := r.delete(ctx, tableGoals, userID, id); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

// GetAlerts возвращает напоминания, ближайшие сроки первыми
func (r *SQLiteRepository) GetAlerts(ctx context.Context, userID string) ([]model.Alert, error) {
	if err := checkID(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+alertColumns+" FROM "+tableAlerts+" WHERE user_id = ? ORDER BY due_date IS NULL, due_date",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var (
			a                  model.Alert
			alertType          string
			dueDate, threshold sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.Message, &alertType, &dueDate, &threshold, &a.Active, &a.Sent); err != nil {
			return nil, fmt.Errorf("failed to parse alerts: %w", err)
		}
		a.Type = model.AlertType(alertType)
		a.DueDate = parseNullDate(dueDate)
		if threshold.Valid {
			amount := model.NewAmount(threshold.String)
			a.Threshold = &amount
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	return alerts, nil
}

func (r *SQLiteRepository) CreateAlert(ctx context.Context, alert model.Alert) (model.Alert, error) {
	if err := checkID(ctx, alert.UserID); err != nil {
		return model.Alert{}, err
	}
	alert.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO "+tableAlerts+" ("+alertColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		alert.ID, alert.UserID, alert.Title, alert.Message, string(alert.Type), sqlValue(alert.DueDate),
		sqlValue(alert.Threshold), sqlValue(alert.Active), sqlValue(alert.Sent),
	)
	if err != nil {
		return model.Alert{}, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

func (r *SQLiteRepository) UpdateAlert(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	if err := r.update(ctx, tableAlerts, userID, id, fields); err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAlert(ctx context.Context, userID, id string) error {
	if err := r.delete(ctx, tableAlerts, userID, id); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (model.UserProfile, error) {
	if err := checkID(ctx, userID); err != nil {
		return model.UserProfile{}, err
	}
	profile, err := r.profileBy(ctx, "id", userID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (r *SQLiteRepository) GetProfileByTelegramID(ctx context.Context, telegramID int64) (model.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return model.UserProfile{}, err
	}
	if telegramID == 0 {
		return model.UserProfile{}, ErrInvalidID
	}
	profile, err := r.profileBy(ctx, "telegram_id", telegramID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to get profile by telegram id: %w", err)
	}
	return profile, nil
}

// SetLinkCode сохраняет код привязки чата. Новый код заменяет прежний.
func (r *SQLiteRepository) SetLinkCode(ctx context.Context, userID, code string, expiresAt time.Time) error {
	if err := checkID(ctx, userID); err != nil {
		return err
	}
	if err := checkID(ctx, code); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE "+tableUsers+" SET link_code = ?, link_code_expires_at = ?, updated_at = ? WHERE id = ?",
		code, expiresAt.UTC().Format(time.RFC3339), r.now().UTC().Format(time.RFC3339), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set link code: %w", err)
	}
	if err := requireRow(res); err != nil {
		return fmt.Errorf("failed to set link code: %w", err)
	}
	return nil
}

// ClaimLinkCode привязывает чат к профилю с этим кодом. Чат, привязанный
// к другому профилю, переходит к этому. Код одноразовый.
func (r *SQLiteRepository) ClaimLinkCode(ctx context.Context, code string, telegramID int64, now time.Time) (model.UserProfile, error) {
	if err := checkID(ctx, code); err != nil {
		return model.UserProfile{}, err
	}
	if telegramID == 0 {
		return model.UserProfile{}, ErrInvalidID
	}

	userID, err := r.claim(ctx, code, telegramID, now)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to link telegram: %w", err)
	}

	r.logger.InfoContext(ctx, "telegram linked", "user_id", userID, "telegram_id", telegramID)
	profile, err := r.profileBy(ctx, "id", userID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (r *SQLiteRepository) claim(ctx context.Context, code string, telegramID int64, now time.Time) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var (
		userID  string
		expires sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		"SELECT id, link_code_expires_at FROM "+tableUsers+" WHERE link_code = ?", code,
	).Scan(&userID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if !expires.Valid {
		return "", ErrExpired
	}
	if t, err := time.Parse(time.RFC3339, expires.String); err != nil || !t.After(now) {
		return "", ErrExpired
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE "+tableUsers+" SET telegram_id = NULL WHERE telegram_id = ? AND id <> ?", telegramID, userID,
	); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE "+tableUsers+" SET telegram_id = ?, link_code = NULL, link_code_expires_at = NULL, updated_at = ? WHERE id = ?",
		telegramID, r.now().UTC().Format(time.RFC3339), userID,
	); err != nil {
		return "", err
	}
	return userID, tx.Commit()
}

// SaveProfile создает или обновляет профиль. В Supabase профили заводит
// веб-клиент, локально их приходится создавать самим.
func (r *SQLiteRepository) SaveProfile(ctx context.Context, profile model.UserProfile) error {
	if err := checkID(ctx, profile.ID); err != nil {
		return err
	}

	var telegramID interface{}
	if profile.TelegramID != nil {
		telegramID = *profile.TelegramID
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO "+tableUsers+" ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET username = excluded.username, email = excluded.email, "+
			"currency = excluded.currency, photo_url = excluded.photo_url, updated_at = excluded.updated_at",
		profile.ID, profile.AuthUserID, profile.Username, profile.Email, profile.Currency, profile.PhotoURL,
		telegramID, r.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) profileBy(ctx context.Context, column string, value interface{}) (model.UserProfile, error) {
	var (
		p          model.UserProfile
		telegramID sql.NullInt64
		updatedAt  sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM "+tableUsers+" WHERE "+column+" = ? LIMIT 1", value,
	).Scan(&p.ID, &p.AuthUserID, &p.Username, &p.Email, &p.Currency, &p.PhotoURL, &telegramID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserProfile{}, ErrNotFound
	}
	if err != nil {
		return model.UserProfile{}, err
	}

	if telegramID.Valid {
		id := telegramID.Int64
		p.TelegramID = &id
	}
	if updatedAt.Valid {
		if t, err := time.Parse(time.RFC3339, updatedAt.String); err == nil {
			p.UpdatedAt = &t
		}
	}
	return p, nil
}

func (r *SQLiteRepository) update(ctx context.Context, table, userID, id string, fields map[string]interface{}) error {
	if err := checkOwned(ctx, userID, id); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	columns := make([]string, 0, len(fields))
	for column := range fields {
		if !updatableColumns[table][column] {
			return fmt.Errorf("unknown column %q", column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	sets := make([]string, len(columns))
	args := make([]interface{}, 0, len(columns)+2)
	for i, column := range columns {
		sets[i] = column + " = ?"
		args = append(args, sqlValue(fields[column]))
	}
	args = append(args, id, userID)

	res, err := r.db.ExecContext(ctx, "UPDATE "+table+" SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?", args...)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "row updated", "table", table, "id", id, "user_id", userID, "fields", len(fields))
	return nil
}

func (r *SQLiteRepository) delete(ctx context.Context, table, userID, id string) error {
	if err := checkOwned(ctx, userID, id); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "row deleted", "table", table, "id", id, "user_id", userID)
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		t                       model.Transaction
		amount, tipo            string
		date, goalID, createdAt sql.NullString
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Description, &amount, &tipo, &t.Category, &t.Subcategory, &date, &goalID, &createdAt); err != nil {
		return model.Transaction{}, err
	}

	t.Amount = model.NewAmount(amount)
	t.Type = model.ParseTransactionType(tipo)
	t.Date = parseNullDate(date)
	if goalID.Valid && goalID.String != "" {
		id := goalID.String
		t.GoalID = &id
	}
	if createdAt.Valid {
		if ts, err := time.Parse(time.RFC3339, createdAt.String); err == nil {
			t.CreatedAt = &ts
		}
	}
	return t, nil
}

// sqlValue приводит значения из Fields к типам колонок: суммы и даты
// хранятся текстом, флаги числами.
func sqlValue(v interface{}) interface{} {
	switch v := v.(type) {
	case model.Amount:
		return v.String()
	case *model.Amount:
		if v == nil {
			return nil
		}
		return v.String()
	case model.Date:
		if v.IsZero() {
			return nil
		}
		return v.String()
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return v
	}
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func parseNullDate(s sql.NullString) model.Date {
	if !s.Valid {
		return model.Date{}
	}
	d, _ := model.ParseDate(s.String)
	return d
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ivanoskov/finance_dashboard/internal/alerts"
	"github.com/ivanoskov/finance_dashboard/internal/analytics"
	"github.com/ivanoskov/finance_dashboard/internal/goals"
	"github.com/ivanoskov/finance_dashboard/internal/log"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

const (
	recentLimit        = 5
	defaultLinkCodeTTL = 15 * time.Minute
)

// Repository определяет интерфейс для работы с хранилищем данных
type Repository interface {
	GetTransactions(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, transaction model.Transaction) (model.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, fields map[string]interface{}) error
	DeleteTransaction(ctx context.Context, userID, id string) error

	GetGoals(ctx context.Context, userID string) ([]model.Goal, error)
	CreateGoal(ctx context.Context, goal model.Goal) (model.Goal, error)
	UpdateGoal(ctx context.Context, userID, id string, fields map[string]interface{}) error
	DeleteGoal(ctx context.Context, userID, id string) error

	GetAlerts(ctx context.Context, userID string) ([]model.Alert, error)
	CreateAlert(ctx context.Context, alert model.Alert) (model.Alert, error)
	UpdateAlert(ctx context.Context, userID, id string, fields map[string]interface{}) error
	DeleteAlert(ctx context.Context, userID, id string) error

	GetProfile(ctx context.Context, userID string) (model.UserProfile, error)
	GetProfileByTelegramID(ctx context.Context, telegramID int64) (model.UserProfile, error)
	SetLinkCode(ctx context.Context, userID, code string, expiresAt time.Time) error
	ClaimLinkCode(ctx context.Context, code string, telegramID int64, now time.Time) (model.UserProfile, error)
}

// EventPublisher получает итог каждой сверки, изменившей цели
type EventPublisher interface {
	PublishReconciliation(ctx context.Context, userID string, result *goals.Result) error
}

// Dashboard собирает снимки дашборда и выполняет команды пользователя
type Dashboard struct {
	repo        Repository
	reconciler  *goals.Reconciler
	events      EventPublisher
	snapshots   *SnapshotStore
	clock       func() time.Time
	location    *time.Location
	linkCodeTTL time.Duration
	currency    string
	logger      *log.Logger
}

type Option func(*Dashboard)

// WithClock подменяет источник текущего времени
func WithClock(clock func() time.Time) Option {
	return func(d *Dashboard) {
		d.clock = clock
	}
}

// WithLocation задает часовой пояс, в котором считается "сегодня"
func WithLocation(loc *time.Location) Option {
	return func(d *Dashboard) {
		if loc != nil {
			d.location = loc
		}
	}
}

// WithLinkCodeTTL задает срок жизни кода привязки чата
func WithLinkCodeTTL(ttl time.Duration) Option {
	return func(d *Dashboard) {
		if ttl > 0 {
			d.linkCodeTTL = ttl
		}
	}
}

func WithReconciler(r *goals.Reconciler) Option {
	return func(d *Dashboard) {
		d.reconciler = r
	}
}

// WithEvents включает публикацию изменений целей. Ошибка публикации
// только логируется.
func WithEvents(p EventPublisher) Option {
	return func(d *Dashboard) {
		d.events = p
	}
}

func WithSnapshotStore(store *SnapshotStore) Option {
	return func(d *Dashboard) {
		d.snapshots = store
	}
}

// WithDefaultCurrency задает валюту для профилей без нее
func WithDefaultCurrency(code string) Option {
	return func(d *Dashboard) {
		if code != "" {
			d.currency = code
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(d *Dashboard) {
		d.logger = l
	}
}

// NewDashboard создает новый экземпляр Dashboard
func NewDashboard(repo Repository, opts ...Option) *Dashboard {
	d := &Dashboard{
		repo:        repo,
		snapshots:   NewSnapshotStore(),
		clock:       time.Now,
		location:    time.UTC,
		linkCodeTTL: defaultLinkCodeTTL,
		currency:    model.DefaultCurrency,
		logger:      log.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.reconciler == nil {
		d.reconciler = goals.NewReconciler(repo, goals.WithLogger(d.logger))
	}
	d.logger = d.logger.WithComponent("dashboard")
	return d
}

func (d *Dashboard) now() time.Time {
	return d.clock().In(d.location)
}

// Snapshots возвращает хранилище последних снимков
func (d *Dashboard) Snapshots() *SnapshotStore {
	return d.snapshots
}

// Snapshot загружает данные пользователя, строит снимок и сохраняет его
// вместо предыдущего.
func (d *Dashboard) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}
	seq := d.snapshots.next()

	var (
		transactions []model.Transaction
		goalList     []model.Goal
		alertList    []model.Alert
		profile      model.UserProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = d.repo.GetTransactions(gctx, userID, model.TransactionFilter{})
		if err != nil {
			return fmt.Errorf("failed to load transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		goalList, err = d.repo.GetGoals(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load goals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		alertList, err = d.repo.GetAlerts(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load alerts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		profile, err = d.repo.GetProfile(gctx, userID)
		if err != nil {
			// профиль нужен только ради валюты
			d.logger.WarnContext(gctx, "profile not loaded, using default currency", "user_id", userID, "error", err)
			profile = model.UserProfile{ID: userID}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	currency := profile.Currency
	if currency == "" {
		currency = d.currency
	}

	snapshot := Build(userID, transactions, goalList, alertList, d.now())
	snapshot.Currency = currency
	snapshot.seq = seq

	if !d.snapshots.Put(snapshot) {
		d.logger.DebugContext(ctx, "stale snapshot dropped", "user_id", userID)
	}
	d.logger.InfoContext(ctx, "snapshot built",
		"user_id", userID,
		"transactions", len(transactions),
		"goals", len(goalList),
		"alerts_today", snapshot.Alerts.Today.Count,
	)
	return snapshot, nil
}

// Build выводит снимок из сырых данных. Ввода-вывода нет.
func Build(userID string, transactions []model.Transaction, goalList []model.Goal, alertList []model.Alert, now time.Time) *Snapshot {
	series := make(map[analytics.Period]analytics.Series, len(analytics.Periods))
	categories := make(map[analytics.Period][]analytics.CategoryAmount, len(analytics.Periods))
	for _, p := range analytics.Periods {
		series[p] = analytics.Bucketize(p, transactions, now)
		categories[p] = analytics.ExpensesByCategory(transactions, p, now)
	}
	monthly := series[analytics.PeriodMonth]

	recent := transactions
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	return &Snapshot{
		UserID:       userID,
		GeneratedAt:  now,
		Currency:     model.DefaultCurrency,
		Totals:       analytics.ComputeTotals(transactions),
		Series:       series,
		Categories:   categories,
		IncomeTrend:  analytics.Trend(monthly, analytics.MetricIncome),
		ExpenseTrend: analytics.Trend(monthly, analytics.MetricExpenses),
		Goals:        goals.WithProgress(goalList, now),
		Alerts:       alerts.Classify(alertList, now),
		Recent:       append([]model.Transaction(nil), recent...),
	}
}

// ResolveTelegramUser возвращает профиль, привязанный к чату
func (d *Dashboard) ResolveTelegramUser(ctx context.Context, telegramID int64) (model.UserProfile, error) {
	profile, err := d.repo.GetProfileByTelegramID(ctx, telegramID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to resolve telegram user: %w", err)
	}
	return profile, nil
}

// LinkCode - одноразовый код привязки чата Telegram к профилю
type LinkCode struct {
	Code      string
	ExpiresAt time.Time
}

// IssueLinkCode выдает новый код привязки. Прежний код профиля перестает действовать.
func (d *Dashboard) IssueLinkCode(ctx context.Context, userID string) (LinkCode, error) {
	if userID == "" {
		return LinkCode{}, ErrInvalidUser
	}
	code := LinkCode{
		Code:      strings.ReplaceAll(uuid.NewString(), "-", ""),
		ExpiresAt: d.now().Add(d.linkCodeTTL),
	}
	if err := d.repo.SetLinkCode(ctx, userID, code.Code, code.ExpiresAt); err != nil {
		return LinkCode{}, fmt.Errorf("failed to issue link code: %w", err)
	}
	d.logger.InfoContext(ctx, "link code issued", "user_id", userID, "expires_at", code.ExpiresAt)
	return code, nil
}

// LinkTelegram привязывает чат к профилю, выдавшему код
func (d *Dashboard) LinkTelegram(ctx context.Context, code string, telegramID int64) (model.UserProfile, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.UserProfile{}, ErrInvalidCode
	}
	profile, err := d.repo.ClaimLinkCode(ctx, code, telegramID, d.now())
	if err != nil {
		return model.UserProfile{}, err
	}
	return profile, nil
}

// Profile возвращает профиль пользователя
func (d *Dashboard) Profile(ctx context.Context, userID string) (model.UserProfile, error) {
	if userID == "" {
		return model.UserProfile{}, ErrInvalidUser
	}
	profile, err := d.repo.GetProfile(ctx, userID)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

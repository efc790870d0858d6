package goals

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ivanoskov/finance_dashboard/internal/log"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// Store - операции хранилища целей, нужные сверке
type Store interface {
	UpdateGoal(ctx context.Context, userID, id string, fields map[string]interface{}) error
	GetGoals(ctx context.Context, userID string) ([]model.Goal, error)
}

// Update - новое значение saved_amount для цели
type Update struct {
	GoalID         string
	NewSavedAmount model.Amount
	// Транзакции, давшие это изменение
	TransactionIDs []string
}

// Failure - ошибка сохранения одной цели
type Failure struct {
	GoalID string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("goal %s: %v", f.GoalID, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result - итог сверки
type Result struct {
	RunID   string
	Applied []Update
	Failed  []Failure
	// Цели, перечитанные из хранилища после всех сохранений
	Goals    []model.Goal
	Reloaded bool
}

// Plan считает новые накопления по дельте: к текущему saved_amount прибавляются
// ahorro и вычитаются retiro. Учитываются только переданные транзакции, поэтому
// повторная передача той же транзакции посчитает ее дважды.
// Транзакции со ссылкой на неизвестную цель игнорируются.
func Plan(goals []model.Goal, transactions []model.Transaction) []Update {
	byGoal := make(map[string][]model.Transaction)
	for _, t := range transactions {
		id := t.LinkedGoal()
		if id == "" || !t.Type.AffectsGoal() {
			continue
		}
		byGoal[id] = append(byGoal[id], t)
	}
	if len(byGoal) == 0 {
		return nil
	}

	updates := make([]Update, 0, len(byGoal))
	for _, g := range goals {
		linked, ok := byGoal[g.ID]
		if !ok {
			continue
		}
		saved := g.SavedAmount.Decimal
		ids := make([]string, 0, len(linked))
		for _, t := range linked {
			saved = applyDelta(saved, t)
			ids = append(ids, t.ID)
		}
		updates = append(updates, Update{
			GoalID:         g.ID,
			NewSavedAmount: model.AmountOf(saved),
			TransactionIDs: ids,
		})
	}
	return updates
}

func applyDelta(saved decimal.Decimal, t model.Transaction) decimal.Decimal {
	switch t.Type {
	case model.TypeSaving:
		return saved.Add(t.Amount.Decimal)
	case model.TypeWithdrawal:
		return saved.Sub(t.Amount.Decimal)
	case model.TypeIncome, model.TypeExpense, model.TypeUnknown:
	}
	return saved
}

// Option настраивает Reconciler
type Option func(*Reconciler)

// WithConcurrency ограничивает число одновременных сохранений
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLedger включает журнал примененных транзакций: транзакция,
// уже учтенная для цели, больше не меняет ее накопления.
func WithLedger(l *Ledger) Option {
	return func(r *Reconciler) {
		r.ledger = l
	}
}

// WithLogger задает логгер
func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// Reconciler сохраняет новые накопления целей и перечитывает цели
type Reconciler struct {
	store       Store
	concurrency int
	ledger      *Ledger
	logger      *log.Logger
}

// NewReconciler создает Reconciler поверх хранилища целей
func NewReconciler(store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:       store,
		concurrency: 4,
		logger:      log.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile применяет новые транзакции к целям пользователя. Сохранения идут
// параллельно; ошибка одной цели не мешает остальным. Цели перечитываются
// только после завершения всех сохранений. Ошибка возвращается лишь тогда,
// когда не удалось перечитать цели; ошибки сохранения лежат в Result.Failed.
func (r *Reconciler) Reconcile(ctx context.Context, userID string, goals []model.Goal, transactions []model.Transaction) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	logger := r.logger.With("run_id", result.RunID, "user_id", userID)

	if len(goals) == 0 || len(transactions) == 0 {
		return result, nil
	}

	if r.ledger != nil {
		transactions = r.ledger.Reserve(transactions)
	}
	updates := Plan(goals, transactions)
	if r.ledger != nil {
		r.releaseUnplanned(transactions, updates)
	}
	if len(updates) == 0 {
		logger.Debug("no goal-linked transactions to reconcile")
		return result, nil
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.concurrency)
	for _, u := range updates {
		g.Go(func() error {
			fields := model.GoalUpdate{SavedAmount: &u.NewSavedAmount}.Fields()
			err := r.store.UpdateGoal(ctx, userID, u.GoalID, fields)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("failed to update goal saved amount", "goal_id", u.GoalID, "error", err)
				result.Failed = append(result.Failed, Failure{GoalID: u.GoalID, Err: err})
				if r.ledger != nil {
					r.ledger.Release(u.GoalID, u.TransactionIDs...)
				}
				return nil
			}
			logger.Info("goal saved amount updated", "goal_id", u.GoalID, "saved_amount", u.NewSavedAmount.String())
			result.Applied = append(result.Applied, u)
			return nil
		})
	}
	_ = g.Wait()

	reloaded, err := r.store.GetGoals(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to reload goals: %w", err)
	}
	result.Goals = reloaded
	result.Reloaded = true
	return result, nil
}

// releaseUnplanned снимает резерв с транзакций, чьей цели нет среди целей пользователя
func (r *Reconciler) releaseUnplanned(reserved []model.Transaction, updates []Update) {
	planned := make(map[string]bool, len(updates))
	for _, u := range updates {
		planned[u.GoalID] = true
	}
	for _, t := range reserved {
		if goalID := t.LinkedGoal(); goalID != "" && !planned[goalID] {
			r.ledger.Release(goalID, t.ID)
		}
	}
}

// Ledger помнит, какие транзакции уже учтены или учитываются сейчас для
// каждой цели. Живет в памяти процесса.
type Ledger struct {
	mu      sync.Mutex
	applied map[string]map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{applied: make(map[string]map[string]struct{})}
}

// Reserve отбрасывает транзакции, уже учтенные или занятые другой сверкой,
// и занимает оставшиеся. Транзакции без id или без цели не занимаются и
// проходят как есть.
func (l *Ledger) Reserve(transactions []model.Transaction) []model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	fresh := make([]model.Transaction, 0, len(transactions))
	for _, t := range transactions {
		goalID := t.LinkedGoal()
		if t.ID == "" || goalID == "" || !t.Type.AffectsGoal() {
			fresh = append(fresh, t)
			continue
		}
		set, ok := l.applied[goalID]
		if !ok {
			set = make(map[string]struct{})
			l.applied[goalID] = set
		}
		if _, done := set[t.ID]; done {
			continue
		}
		set[t.ID] = struct{}{}
		fresh = append(fresh, t)
	}
	return fresh
}

// Release возвращает транзакции, которые не удалось применить к цели
func (l *Ledger) Release(goalID string, transactionIDs ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	set := l.applied[goalID]
	for _, id := range transactionIDs {
		delete(set, id)
	}
	if len(set) == 0 {
		delete(l.applied, goalID)
	}
}

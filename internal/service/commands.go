package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ivanoskov/finance_dashboard/internal/goals"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// TransactionResult - сохраненная транзакция и итог сверки целей, если она была
type TransactionResult struct {
	Transaction    model.Transaction
	Reconciliation *goals.Result
}

// AddTransaction сохраняет транзакцию. ahorro или retiro со ссылкой на цель
// сразу меняет накопления этой цели. Ссылка на чужую цель дает ErrNotFound.
func (d *Dashboard) AddTransaction(ctx context.Context, transaction model.Transaction) (*TransactionResult, error) {
	if transaction.UserID == "" {
		return nil, ErrInvalidUser
	}
	if !transaction.Type.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, transaction.Type)
	}
	if !transaction.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if transaction.Date.IsZero() {
		transaction.Date = model.DateOf(d.now())
	}
	transaction.Description = strings.TrimSpace(transaction.Description)

	goalList, err := d.linkedGoals(ctx, transaction)
	if err != nil {
		return nil, err
	}

	created, err := d.repo.CreateTransaction(ctx, transaction)
	if err != nil {
		return nil, err
	}
	defer d.snapshots.Invalidate(transaction.UserID)

	result := &TransactionResult{Transaction: created}
	result.Reconciliation, err = d.reconcile(ctx, created, goalList)
	if err != nil {
		return result, err
	}
	return result, nil
}

// UpdateTransaction меняет поля транзакции. Если после изменения она
// ahorro/retiro со ссылкой на цель, цель пересчитывается.
func (d *Dashboard) UpdateTransaction(ctx context.Context, userID, id string, update model.TransactionUpdate) (*TransactionResult, error) {
	if update.Type != nil && !update.Type.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, *update.Type)
	}
	if update.Amount != nil && !update.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	current, err := d.findTransaction(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	next := update.Apply(current)
	goalList, err := d.linkedGoals(ctx, next)
	if err != nil {
		return nil, err
	}
	if err := d.repo.UpdateTransaction(ctx, userID, id, update.Fields()); err != nil {
		return nil, err
	}
	defer d.snapshots.Invalidate(userID)

	result := &TransactionResult{Transaction: next}
	result.Reconciliation, err = d.reconcile(ctx, next, goalList)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (d *Dashboard) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := d.repo.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	d.snapshots.Invalidate(userID)
	return nil
}

func (d *Dashboard) findTransaction(ctx context.Context, userID, id string) (model.Transaction, error) {
	transactions, err := d.repo.GetTransactions(ctx, userID, model.TransactionFilter{})
	if err != nil {
		return model.Transaction{}, err
	}
	for _, t := range transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

// linkedGoals загружает цели пользователя, если транзакция ссылается на цель,
// и проверяет, что цель принадлежит ему.
func (d *Dashboard) linkedGoals(ctx context.Context, t model.Transaction) ([]model.Goal, error) {
	goalID := t.LinkedGoal()
	if goalID == "" {
		return nil, nil
	}

	goalList, err := d.repo.GetGoals(ctx, t.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}
	for _, g := range goalList {
		if g.ID == goalID {
			return goalList, nil
		}
	}
	return nil, fmt.Errorf("goal %s: %w", goalID, ErrNotFound)
}

// reconcile применяет одну транзакцию к ее цели. Ошибки отдельных целей
// остаются в результате и только логируются.
func (d *Dashboard) reconcile(ctx context.Context, t model.Transaction, goalList []model.Goal) (*goals.Result, error) {
	if !t.Type.AffectsGoal() || t.LinkedGoal() == "" {
		return nil, nil
	}

	result, err := d.reconciler.Reconcile(ctx, t.UserID, goalList, []model.Transaction{t})
	if result == nil {
		return nil, err
	}
	for _, f := range result.Failed {
		d.logger.WarnContext(ctx, "goal not reconciled", "run_id", result.RunID, "goal_id", f.GoalID, "error", f.Err)
	}
	if d.events != nil && len(result.Applied) > 0 {
		if perr := d.events.PublishReconciliation(ctx, t.UserID, result); perr != nil {
			d.logger.WarnContext(ctx, "failed to publish goal events", "run_id", result.RunID, "error", perr)
		}
	}
	return result, err
}

func (d *Dashboard) CreateGoal(ctx context.Context, goal model.Goal) (model.Goal, error) {
	if goal.UserID == "" {
		return model.Goal{}, ErrInvalidUser
	}
	goal.Name = strings.TrimSpace(goal.Name)
	if goal.Name == "" {
		return model.Goal{}, ErrEmptyName
	}
	if !goal.TargetAmount.IsPositive() {
		return model.Goal{}, ErrInvalidTarget
	}

	created, err := d.repo.CreateGoal(ctx, goal)
	if err != nil {
		return model.Goal{}, err
	}
	d.snapshots.Invalidate(goal.UserID)
	return created, nil
}

func (d *Dashboard) UpdateGoal(ctx context.Context, userID, id string, update model.GoalUpdate) error {
	if update.TargetAmount != nil && !update.TargetAmount.IsPositive() {
		return ErrInvalidTarget
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return ErrEmptyName
	}
	if err := d.repo.UpdateGoal(ctx, userID, id, update.Fields()); err != nil {
		return err
	}
	d.snapshots.Invalidate(userID)
	return nil
}

func (d *Dashboard) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := d.repo.DeleteGoal(ctx, userID, id); err != nil {
		return err
	}
	d.snapshots.Invalidate(userID)
	return nil
}

// CreateAlert сохраняет напоминание. Новое напоминание всегда не отправлено.
func (d *Dashboard) CreateAlert(ctx context.Context, alert model.Alert) (model.Alert, error) {
	if alert.UserID == "" {
		return model.Alert{}, ErrInvalidUser
	}
	alert.Title = strings.TrimSpace(alert.Title)
	if alert.Title == "" {
		return model.Alert{}, ErrEmptyTitle
	}
	if alert.Type == "" {
		alert.Type = model.AlertReminder
	}
	alert.Sent = false

	created, err := d.repo.CreateAlert(ctx, alert)
	if err != nil {
		return model.Alert{}, err
	}
	d.snapshots.Invalidate(alert.UserID)
	return created, nil
}

func (d *Dashboard) UpdateAlert(ctx context.Context, userID, id string, update model.AlertUpdate) error {
	if update.Sent != nil && *update.Sent {
		return ErrSentFlag
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return ErrEmptyTitle
	}
	return d.updateAlert(ctx, userID, id, update)
}

// SetAlertActive показывает или скрывает напоминание на дашборде
func (d *Dashboard) SetAlertActive(ctx context.Context, userID, id string, active bool) error {
	return d.updateAlert(ctx, userID, id, model.AlertUpdate{Active: &active})
}

// ToggleAlert переключает active и возвращает новое значение
func (d *Dashboard) ToggleAlert(ctx context.Context, userID, id string) (bool, error) {
	alertList, err := d.repo.GetAlerts(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, a := range alertList {
		if a.ID == id {
			active := !a.Active
			return active, d.SetAlertActive(ctx, userID, id, active)
		}
	}
	return false, fmt.Errorf("alert %s: %w", id, ErrNotFound)
}

// MarkAlertSent отмечает напоминание отправленным (enviado)
func (d *Dashboard) MarkAlertSent(ctx context.Context, userID, id string) error {
	sent := true
	return d.updateAlert(ctx, userID, id, model.AlertUpdate{Sent: &sent})
}

func (d *Dashboard) DeleteAlert(ctx context.Context, userID, id string) error {
	if err := d.repo.DeleteAlert(ctx, userID, id); err != nil {
		return err
	}
	d.snapshots.Invalidate(userID)
	return nil
}

func (d *Dashboard) updateAlert(ctx context.Context, userID, id string, update model.AlertUpdate) error {
	if err := d.repo.UpdateAlert(ctx, userID, id, update.Fields()); err != nil {
		return err
	}
	d.snapshots.Invalidate(userID)
	return nil
}

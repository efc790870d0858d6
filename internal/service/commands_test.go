package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanoskov/finance_dashboard/internal/model"
)

func strPtr(s string) *string { return &s }

func TestAddTransactionReconcilesLinkedGoal(t *testing.T) {
	var savedFields map[string]interface{}
	repo := &MockRepository{
		GetGoalsFunc: func(ctx context.Context, userID string) ([]model.Goal, error) {
			return []model.Goal{{ID: "g1", UserID: userID, SavedAmount: model.AmountFromInt(500), TargetAmount: model.AmountFromInt(1000)}}, nil
		},
		UpdateGoalFunc: func(ctx context.Context, userID, id string, fields map[string]interface{}) error {
			assert.Equal(t, "g1", id)
			savedFields = fields
			return nil
		},
	}
	d := newTestDashboard(repo)
	d.Snapshots().Put(&Snapshot{UserID: "u1"})

	result, err := d.AddTransaction(context.Background(), model.Transaction{
		UserID: "u1",
		Type:   model.TypeSaving,
		Amount: model.AmountFromInt(200),
		GoalID: strPtr("g1"),
	})
	require.NoError(t, err)

	assert.Equal(t, "tx-new", result.Transaction.ID)
	assert.Equal(t, model.NewDate(2024, 6, 15), result.Transaction.Date)
	require.NotNil(t, result.Reconciliation)
	require.Len(t, result.Reconciliation.Applied, 1)
	assert.Equal(t, "700", result.Reconciliation.Applied[0].NewSavedAmount.String())
	assert.Equal(t, "700", savedFields["saved_amount"].(model.Amount).String())

	_, ok := d.Snapshots().Get("u1")
	assert.False(t, ok)
}

func TestAddTransactionWithoutGoalSkipsReconcile(t *testing.T) {
	repo := &MockRepository{
		GetGoalsFunc: func(ctx context.Context, userID string) ([]model.Goal, error) {
			return []model.Goal{{ID: "g1", UserID: userID}}, nil
		},
	}
	d := newTestDashboard(repo)

	result, err := d.AddTransaction(context.Background(), model.Transaction{
		UserID: "u1",
		Type:   model.TypeExpense,
		Amount: model.AmountFromInt(20),
		GoalID: strPtr("g1"),
	})
	require.NoError(t, err)

	assert.Nil(t, result.Reconciliation)
	assert.Equal(t, []string{"GetGoals", "CreateTransaction"}, repo.Calls())
}

func TestAddTransactionValidation(t *testing.T) {
	d := newTestDashboard(&MockRepository{})
	ctx := context.Background()

	_, err := d.AddTransaction(ctx, model.Transaction{Type: model.TypeIncome, Amount: model.AmountFromInt(1)})
	assert.ErrorIs(t, err, ErrInvalidUser)

	_, err = d.AddTransaction(ctx, model.Transaction{UserID: "u1", Type: "bono", Amount: model.AmountFromInt(1)})
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = d.AddTransaction(ctx, model.Transaction{UserID: "u1", Type: model.TypeIncome, Amount: model.AmountFromInt(-5)})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAddTransactionKeepsResultWhenReloadFails(t *testing.T) {
	calls := 0
	repo := &MockRepository{
		GetGoalsFunc: func(ctx context.Context, userID string) ([]model.Goal, error) {
			calls++
			if calls > 1 {
				return nil, errors.New("network down")
			}
			return []model.Goal{{ID: "g1", SavedAmount: model.AmountFromInt(100), TargetAmount: model.AmountFromInt(300)}}, nil
		},
	}
	d := newTestDashboard(repo)

	result, err := d.AddTransaction(context.Background(), model.Transaction{
		UserID: "u1",
		Type:   model.TypeWithdrawal,
		Amount: model.AmountFromInt(30),
		GoalID: strPtr("g1"),
	})

	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "tx-new", result.Transaction.ID)
	assert.Len(t, result.Reconciliation.Applied, 1)
}

func TestUpdateTransactionReconcilesUpdatedRecord(t *testing.T) {
	var goalUpdated bool
	repo := &MockRepository{
		GetTransactionsFunc: func(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error) {
			return []model.Transaction{{ID: "t1", UserID: "u1", Type: model.TypeExpense, Amount: model.AmountFromInt(80)}}, nil
		},
		GetGoalsFunc: func(ctx context.Context, userID string) ([]model.Goal, error) {
			return []model.Goal{{ID: "g1", UserID: userID, SavedAmount: model.AmountFromInt(20), TargetAmount: model.AmountFromInt(300)}}, nil
		},
		UpdateTransactionFunc: func(ctx context.Context, userID, id string, fields map[string]interface{}) error {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, "t1", id)
			return nil
		},
		UpdateGoalFunc: func(ctx context.Context, userID, id string, fields map[string]interface{}) error {
			goalUpdated = true
			assert.Equal(t, "100", fields["saved_amount"].(model.Amount).String())
			return nil
		},
	}
	d := newTestDashboard(repo)
	tipo := model.TypeSaving

	result, err := d.UpdateTransaction(context.Background(), "u1", "t1", model.TransactionUpdate{Type: &tipo, GoalID: strPtr("g1")})
	require.NoError(t, err)

	assert.True(t, goalUpdated)
	assert.Equal(t, model.TypeSaving, result.Transaction.Type)
}

func TestUpdateTransactionNotFound(t *testing.T) {
	d := newTestDashboard(&MockRepository{})
	amount := model.AmountFromInt(5)

	_, err := d.UpdateTransaction(context.Background(), "u1", "missing", model.TransactionUpdate{Amount: &amount})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateGoalValidation(t *testing.T) {
	repo := &MockRepository{}
	d := newTestDashboard(repo)
	ctx := context.Background()

	_, err := d.CreateGoal(ctx, model.Goal{UserID: "u1", Name: "Auto", TargetAmount: model.AmountFromInt(0)})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = d.CreateGoal(ctx, model.Goal{UserID: "u1", Name: "  ", TargetAmount: model.AmountFromInt(10)})
	assert.ErrorIs(t, err, ErrEmptyName)

	created, err := d.CreateGoal(ctx, model.Goal{UserID: "u1", Name: " Auto ", TargetAmount: model.AmountFromInt(10)})
	require.NoError(t, err)
	assert.Equal(t, "Auto", created.Name)

	zero := model.AmountFromInt(0)
	assert.ErrorIs(t, d.UpdateGoal(ctx, "u1", "g1", model.GoalUpdate{TargetAmount: &zero}), ErrInvalidTarget)
}

func TestAlertSentFlagOnlyThroughMarkAlertSent(t *testing.T) {
	var fields []map[string]interface{}
	repo := &MockRepository{
		UpdateAlertFunc: func(ctx context.Context, userID, id string, f map[string]interface{}) error {
			fields = append(fields, f)
			return nil
		},
	}
	d := newTestDashboard(repo)
	ctx := context.Background()
	sent := true

	assert.ErrorIs(t, d.UpdateAlert(ctx, "u1", "a1", model.AlertUpdate{Sent: &sent}), ErrSentFlag)
	assert.Empty(t, fields)

	require.NoError(t, d.MarkAlertSent(ctx, "u1", "a1"))
	require.NoError(t, d.SetAlertActive(ctx, "u1", "a1", false))

	assert.Equal(t, []map[string]interface{}{{"enviado": true}, {"active": false}}, fields)
}

func TestCreateAlertResetsSent(t *testing.T) {
	var stored model.Alert
	repo := &MockRepository{
		CreateAlertFunc: func(ctx context.Context, alert model.Alert) (model.Alert, error) {
			stored = alert
			alert.ID = "a1"
			return alert, nil
		},
	}
	d := newTestDashboard(repo)

	_, err := d.CreateAlert(context.Background(), model.Alert{UserID: "u1", Title: "Luz", Sent: true, Active: true})
	require.NoError(t, err)

	assert.False(t, stored.Sent)
	assert.Equal(t, model.AlertReminder, stored.Type)

	_, err = d.CreateAlert(context.Background(), model.Alert{UserID: "u1"})
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestToggleAlert(t *testing.T) {
	var fields map[string]interface{}
	repo := &MockRepository{
		GetAlertsFunc: func(ctx context.Context, userID string) ([]model.Alert, error) {
			return []model.Alert{{ID: "a1", Active: true}}, nil
		},
		UpdateAlertFunc: func(ctx context.Context, userID, id string, f map[string]interface{}) error {
			fields = f
			return nil
		},
	}
	d := newTestDashboard(repo)

	active, err := d.ToggleAlert(context.Background(), "u1", "a1")
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, map[string]interface{}{"active": false}, fields)

	_, err = d.ToggleAlert(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCommandsInvalidateSnapshot(t *testing.T) {
	repo := &MockRepository{DeleteGoalFunc: func(ctx context.Context, userID, id string) error { return errors.New("denied") }}
	d := newTestDashboard(repo)
	ctx := context.Background()

	d.Snapshots().Put(&Snapshot{UserID: "u1"})
	require.Error(t, d.DeleteGoal(ctx, "u1", "g1"))
	_, ok := d.Snapshots().Get("u1")
	assert.True(t, ok)

	require.NoError(t, d.DeleteTransaction(ctx, "u1", "t1"))
	_, ok = d.Snapshots().Get("u1")
	assert.False(t, ok)
}

func TestAddTransactionPublishesGoalEvents(t *testing.T) {
	repo := &MockRepository{
		GetGoalsFunc: func(ctx context.Context, userID string) ([]model.Goal, error) {
			return []model.Goal{{ID: "g1", SavedAmount: model.AmountFromInt(100), TargetAmount: model.AmountFromInt(300)}}, nil
		},
	}
	publisher := &MockPublisher{Err: errors.New("broker down")}
	d := newTestDashboard(repo, WithEvents(publisher))
	ctx := context.Background()

	result, err := d.AddTransaction(ctx, model.Transaction{
		UserID: "u1",
		Type:   model.TypeSaving,
		Amount: model.AmountFromInt(50),
		GoalID: strPtr("g1"),
	})
	require.NoError(t, err)
	require.Len(t, publisher.results, 1)
	assert.Same(t, result.Reconciliation, publisher.results[0])

	_, err = d.AddTransaction(ctx, model.Transaction{UserID: "u1", Type: model.TypeExpense, Amount: model.AmountFromInt(5)})
	require.NoError(t, err)
	assert.Len(t, publisher.results, 1)
}

func TestAddTransactionRejectsForeignGoal(t *testing.T) {
	repo := &MockRepository{
		GetGoalsFunc: func(ctx context.Context, userID string) ([]model.Goal, error) {
			return []model.Goal{{ID: "own", UserID: userID}}, nil
		},
	}
	d := newTestDashboard(repo)

	_, err := d.AddTransaction(context.Background(), model.Transaction{
		UserID: "attacker",
		Type:   model.TypeWithdrawal,
		Amount: model.AmountFromInt(500),
		GoalID: strPtr("victim-goal"),
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"GetGoals"}, repo.Calls())
}

func TestUpdateTransactionRejectsForeignGoal(t *testing.T) {
	repo := &MockRepository{
		GetTransactionsFunc: func(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error) {
			return []model.Transaction{{ID: "t1", UserID: userID, Type: model.TypeSaving, Amount: model.AmountFromInt(10)}}, nil
		},
	}
	d := newTestDashboard(repo)

	_, err := d.UpdateTransaction(context.Background(), "u1", "t1", model.TransactionUpdate{GoalID: strPtr("victim-goal")})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, repo.Calls(), "UpdateTransaction")
}

func TestCommandsWriteOnlyOwnRecords(t *testing.T) {
	var owners []string
	own := func(userID string) error {
		owners = append(owners, userID)
		return nil
	}
	repo := &MockRepository{
		GetAlertsFunc: func(ctx context.Context, userID string) ([]model.Alert, error) {
			return []model.Alert{{ID: "a1", UserID: userID, Active: true}}, nil
		},
		UpdateGoalFunc: func(ctx context.Context, userID, id string, fields map[string]interface{}) error {
			return own(userID)
		},
		DeleteGoalFunc: func(ctx context.Context, userID, id string) error { return own(userID) },
		UpdateAlertFunc: func(ctx context.Context, userID, id string, fields map[string]interface{}) error {
			return own(userID)
		},
		DeleteAlertFunc:       func(ctx context.Context, userID, id string) error { return own(userID) },
		DeleteTransactionFunc: func(ctx context.Context, userID, id string) error { return own(userID) },
	}
	d := newTestDashboard(repo)
	ctx := context.Background()
	name := "Casa"
	title := "Luz"

	require.NoError(t, d.UpdateGoal(ctx, "u1", "g1", model.GoalUpdate{Name: &name}))
	require.NoError(t, d.DeleteGoal(ctx, "u1", "g1"))
	require.NoError(t, d.UpdateAlert(ctx, "u1", "a1", model.AlertUpdate{Title: &title}))
	require.NoError(t, d.MarkAlertSent(ctx, "u1", "a1"))
	_, err := d.ToggleAlert(ctx, "u1", "a1")
	require.NoError(t, err)
	require.NoError(t, d.DeleteAlert(ctx, "u1", "a1"))
	require.NoError(t, d.DeleteTransaction(ctx, "u1", "t1"))

	assert.Equal(t, []string{"u1", "u1", "u1", "u1", "u1", "u1", "u1"}, owners)
}

func TestCommandsPassRepositoryNotFound(t *testing.T) {
	notFound := errors.New("not found")
	repo := &MockRepository{
		UpdateGoalFunc: func(ctx context.Context, userID, id string, fields map[string]interface{}) error {
			return notFound
		},
	}
	d := newTestDashboard(repo)
	d.Snapshots().Put(&Snapshot{UserID: "attacker"})
	zero := model.AmountFromInt(0)

	err := d.UpdateGoal(context.Background(), "attacker", "victim-goal", model.GoalUpdate{SavedAmount: &zero})

	assert.ErrorIs(t, err, notFound)
	_, ok := d.Snapshots().Get("attacker")
	assert.True(t, ok)
}

package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanoskov/finance_dashboard/internal/model"
)

func alert(id string, due model.Date, active, sent bool) model.Alert {
	return model.Alert{ID: id, Title: "Alerta " + id, DueDate: due, Active: active, Sent: sent}
}

func TestClassifyPending(t *testing.T) {
	now := time.Date(2024, 6, 15, 23, 59, 0, 0, time.UTC)
	result := Classify([]model.Alert{
		alert("tomorrow", model.NewDate(2024, 6, 16), true, false),
		alert("today", model.NewDate(2024, 6, 15), true, false),
		alert("yesterday", model.NewDate(2024, 6, 14), true, false),
		alert("none", model.Date{}, true, false),
	}, now)

	require.Len(t, result.Alerts, 4)
	assert.True(t, result.Alerts[0].Pending)
	assert.False(t, result.Alerts[1].Pending)
	assert.False(t, result.Alerts[2].Pending)
	assert.False(t, result.Alerts[3].Pending)

	pending := result.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "tomorrow", pending[0].ID)
}

func TestClassifyToday(t *testing.T) {
	now := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	result := Classify([]model.Alert{
		alert("sent", model.NewDate(2024, 6, 15), true, true),
		alert("unsent", model.NewDate(2024, 6, 15), true, false),
		alert("later", model.NewDate(2024, 6, 16), true, false),
		alert("hidden", model.NewDate(2024, 6, 15), false, false),
		alert("unsent2", model.NewDate(2024, 6, 15), true, false),
		alert("none", model.Date{}, true, false),
	}, now)

	today := result.Today
	assert.True(t, today.HasAlerts)
	require.Equal(t, 3, today.Count)
	ids := []string{today.Alerts[0].ID, today.Alerts[1].ID, today.Alerts[2].ID}
	assert.Equal(t, []string{"unsent", "unsent2", "sent"}, ids)
}

func TestClassifyUsesLocalDay(t *testing.T) {
	lima := time.FixedZone("PET", -5*3600)
	// 02:00 UTC 16 июня - еще 15 июня в Лиме
	now := time.Date(2024, 6, 16, 2, 0, 0, 0, time.UTC).In(lima)

	result := Classify([]model.Alert{alert("a", model.NewDate(2024, 6, 15), true, false)}, now)

	assert.Equal(t, 1, result.Today.Count)
}

func TestClassifyEmpty(t *testing.T) {
	result := Classify(nil, time.Now())

	assert.Empty(t, result.Alerts)
	assert.False(t, result.Today.HasAlerts)
	assert.Equal(t, 0, result.Today.Count)
	assert.NotNil(t, result.Today.Alerts)
}

// Package goals вычисляет прогресс целей и сверяет накопления с транзакциями ahorro/retiro.
package goals

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ivanoskov/finance_dashboard/internal/calendar"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

var hundred = decimal.NewFromInt(100)

// WithProgress возвращает новые записи с прогрессом, признаком выполнения и
// просрочки. Входные цели не меняются.
//
// Цель с target_amount <= 0 считается выполненной (100%), если накоплено не
// меньше нуля, иначе прогресс 0 и цель не выполнена.
func WithProgress(goals []model.Goal, now time.Time) []model.GoalWithProgress {
	today := calendar.Day(now)
	result := make([]model.GoalWithProgress, 0, len(goals))
	for _, g := range goals {
		result = append(result, progressOf(g, today))
	}
	return result
}

func progressOf(g model.Goal, today time.Time) model.GoalWithProgress {
	saved := g.SavedAmount.Decimal
	target := g.TargetAmount.Decimal

	var progress decimal.Decimal
	var completed bool
	if target.Sign() <= 0 {
		completed = saved.Sign() >= 0
		if completed {
			progress = hundred
		}
	} else {
		completed = saved.GreaterThanOrEqual(target)
		progress = clamp(saved.Div(target).Mul(hundred))
	}

	expired := !completed && !g.Deadline.IsZero() && g.Deadline.Time().Before(today)

	return model.GoalWithProgress{
		Goal:      g,
		Progress:  progress.InexactFloat64(),
		Completed: completed,
		Expired:   expired,
	}
}

func clamp(v decimal.Decimal) decimal.Decimal {
	if v.Sign() < 0 {
		return decimal.Zero
	}
	if v.GreaterThan(hundred) {
		return hundred
	}
	return v
}

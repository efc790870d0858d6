package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ivanoskov/finance_dashboard/internal/calendar"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// UncategorizedLabel - подпись для расходов без категории
const UncategorizedLabel = "Sin categoría"

// CategoryAmount - сумма расходов по категории
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

var categoryWindowDays = map[Period]int{
	PeriodWeek:  7,
	PeriodMonth: 30,
	PeriodYear:  365,
}

// ExpensesByCategory собирает расходы (gasto) по категориям за последние
// 7, 30 или 365 дней. Результат отсортирован по убыванию суммы.
func ExpensesByCategory(transactions []model.Transaction, period Period, now time.Time) []CategoryAmount {
	days, ok := categoryWindowDays[period]
	if !ok {
		days = categoryWindowDays[PeriodMonth]
	}
	today := calendar.Day(now)
	start := today.AddDate(0, 0, -days)

	index := make(map[string]int)
	result := make([]CategoryAmount, 0)
	for _, t := range transactions {
		if t.Type != model.TypeExpense || t.Date.IsZero() {
			continue
		}
		if !calendar.Within(t.Date.Time(), start, today) {
			continue
		}
		name := strings.TrimSpace(t.Category)
		if name == "" {
			name = UncategorizedLabel
		}
		i, seen := index[name]
		if !seen {
			i = len(result)
			index[name] = i
			result = append(result, CategoryAmount{Name: name, Amount: decimal.Zero})
		}
		result[i].Amount = result[i].Amount.Add(t.Amount.Decimal)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Amount.GreaterThan(result[j].Amount)
	})
	return result
}

package analytics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ivanoskov/finance_dashboard/internal/calendar"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// Period - переключатель периода на графиках
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Periods перечисляет периоды в порядке отображения
var Periods = []Period{PeriodWeek, PeriodMonth, PeriodYear}

// ParsePeriod принимает английские и испанские названия периода
func ParsePeriod(s string) (Period, bool) {
	switch s {
	case "week", "semana":
		return PeriodWeek, true
	case "month", "mes":
		return PeriodMonth, true
	case "year", "año", "ano":
		return PeriodYear, true
	}
	return "", false
}

// Размер окна для каждого периода
const (
	weeksWindow  = 6
	monthsWindow = 6
	yearsWindow  = 3
)

var shortMonths = [...]string{
	"ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "sept", "oct", "nov", "dic",
}

// Bucket - доходы и расходы за отрезок [Start, End] (даты включительно)
type Bucket struct {
	Label    string          `json:"label"`
	Start    time.Time       `json:"start"`
	End      time.Time       `json:"end"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Value возвращает значение выбранной метрики
func (b Bucket) Value(metric Metric) decimal.Decimal {
	if metric == MetricIncome {
		return b.Income
	}
	return b.Expenses
}

// Series - упорядоченные корзины, от старой к новой
type Series []Bucket

// Get ищет корзину по подписи
func (s Series) Get(label string) (Bucket, bool) {
	for _, b := range s {
		if b.Label == label {
			return b, true
		}
	}
	return Bucket{}, false
}

// Labels возвращает подписи в порядке вставки
func (s Series) Labels() []string {
	labels := make([]string, len(s))
	for i, b := range s {
		labels[i] = b.Label
	}
	return labels
}

// Bucketize строит ряд для выбранного периода
func Bucketize(period Period, transactions []model.Transaction, reference time.Time) Series {
	switch period {
	case PeriodWeek:
		return BucketByWeek(transactions, reference)
	case PeriodYear:
		return BucketByYear(transactions, reference)
	default:
		return BucketByMonth(transactions, reference)
	}
}

// BucketByWeek - последние 6 недель, с воскресенья по субботу
func BucketByWeek(transactions []model.Transaction, reference time.Time) Series {
	today := calendar.Day(reference)
	series := make(Series, 0, weeksWindow)
	for i := weeksWindow - 1; i >= 0; i-- {
		start := today.AddDate(0, 0, -(int(today.Weekday()) + 7*i))
		end := start.AddDate(0, 0, 6)
		series = append(series, newBucket(weekLabel(start, end), start, end))
	}
	series.accumulate(transactions)
	return series
}

// BucketByMonth - последние 6 календарных месяцев
func BucketByMonth(transactions []model.Transaction, reference time.Time) Series {
	today := calendar.Day(reference)
	series := make(Series, 0, monthsWindow)
	for i := monthsWindow - 1; i >= 0; i-- {
		start := time.Date(today.Year(), today.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		series = append(series, newBucket(monthLabel(start), start, end))
	}
	series.accumulate(transactions)
	return series
}

// BucketByYear - последние 3 календарных года
func BucketByYear(transactions []model.Transaction, reference time.Time) Series {
	today := calendar.Day(reference)
	series := make(Series, 0, yearsWindow)
	for i := yearsWindow - 1; i >= 0; i-- {
		year := today.Year() - i
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		series = append(series, newBucket(strconv.Itoa(year), start, end))
	}
	series.accumulate(transactions)
	return series
}

func newBucket(label string, start, end time.Time) Bucket {
	return Bucket{
		Label:    label,
		Start:    start,
		End:      end,
		Income:   decimal.Zero,
		Expenses: decimal.Zero,
	}
}

// accumulate раскладывает транзакции по корзинам. Транзакции без даты
// пропускаются, ahorro и retiro в эти графики не входят.
func (s Series) accumulate(transactions []model.Transaction) {
	for _, t := range transactions {
		if t.Date.IsZero() {
			continue
		}
		i := s.indexOf(t.Date.Time())
		if i < 0 {
			continue
		}
		switch t.Type {
		case model.TypeIncome:
			s[i].Income = s[i].Income.Add(t.Amount.Decimal)
		case model.TypeExpense:
			s[i].Expenses = s[i].Expenses.Add(t.Amount.Decimal)
		case model.TypeSaving, model.TypeWithdrawal, model.TypeUnknown:
		}
	}
}

func (s Series) indexOf(day time.Time) int {
	for i, b := range s {
		if calendar.Within(day, b.Start, b.End) {
			return i
		}
	}
	return -1
}

func weekLabel(start, end time.Time) string {
	return fmt.Sprintf("%d/%d - %d/%d", start.Day(), int(start.Month()), end.Day(), int(end.Month()))
}

func monthLabel(start time.Time) string {
	return fmt.Sprintf("%s %02d", shortMonths[start.Month()-1], start.Year()%100)
}

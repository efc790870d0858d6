package analytics

import "github.com/shopspring/decimal"

// Direction - направление изменения
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// Metric - что сравнивается в тренде
type Metric string

const (
	MetricIncome   Metric = "income"
	MetricExpenses Metric = "expenses"
)

// TrendResult - процент изменения с направлением
type TrendResult struct {
	Direction Direction `json:"direction"`
	Percent   string    `json:"percent"`
}

var hundred = decimal.NewFromInt(100)

// Trend сравнивает две последние корзины ряда.
// Если предыдущее значение равно нулю, результат всегда "up, 100%".
func Trend(series Series, metric Metric) TrendResult {
	if len(series) < 2 {
		return TrendResult{Direction: DirectionNeutral, Percent: "0%"}
	}

	current := series[len(series)-1].Value(metric)
	previous := series[len(series)-2].Value(metric)

	if previous.IsZero() {
		return TrendResult{Direction: DirectionUp, Percent: "100%"}
	}

	change := current.Sub(previous).Div(previous).Mul(hundred)
	direction := DirectionNeutral
	switch change.Sign() {
	case 1:
		direction = DirectionUp
	case -1:
		direction = DirectionDown
	}

	return TrendResult{
		Direction: direction,
		Percent:   change.Abs().StringFixed(1) + "%",
	}
}

package charts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/ivanoskov/finance_dashboard/internal/analytics"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// Доля категории, ниже которой она не подписывается на диаграмме
const minCategoryShare = 1.0

// ChartGenerator генерирует различные типы графиков
type ChartGenerator struct {
	Width  int
	Height int
}

// NewChartGenerator создает новый генератор графиков
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{Width: 1200, Height: 600}
}

func (g *ChartGenerator) background() chart.Style {
	return chart.Style{
		Padding: chart.Box{
			Top:    50,
			Left:   50,
			Right:  50,
			Bottom: 50,
		},
		FillColor: chart.ColorWhite,
	}
}

func axisStyle() chart.Style {
	return chart.Style{
		FontSize:  12,
		FontColor: chart.ColorBlack,
	}
}

func moneyFormatter(symbol string) chart.ValueFormatter {
	return func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return fmt.Sprintf("%s%.0f", symbol, f)
		}
		return ""
	}
}

// IncomeExpenseChart рисует доходы, расходы и накопительный баланс по отрезкам.
// Если во всех отрезках нули, возвращает nil.
func (g *ChartGenerator) IncomeExpenseChart(period analytics.Period, series analytics.Series, symbol string) ([]byte, error) {
	if !hasValues(series) {
		return nil, nil
	}

	xValues := make([]time.Time, len(series))
	incomeValues := make([]float64, len(series))
	expenseValues := make([]float64, len(series))
	balanceValues := make([]float64, len(series))
	ticks := make([]chart.Tick, len(series))

	// Рассчитываем накопительный баланс и собираем данные
	runningBalance := 0.0
	for i, b := range series {
		xValues[i] = b.Start
		incomeValues[i] = b.Income.InexactFloat64()
		expenseValues[i] = b.Expenses.InexactFloat64()
		runningBalance += incomeValues[i] - expenseValues[i]
		balanceValues[i] = runningBalance
		ticks[i] = chart.Tick{Value: chart.TimeToFloat64(b.Start), Label: b.Label}
	}

	graph := chart.Chart{
		Title:      periodTitle(period),
		Width:      g.Width,
		Height:     g.Height,
		Background: g.background(),
		XAxis: chart.XAxis{
			Ticks: ticks,
			Style: axisStyle(),
		},
		YAxis: chart.YAxis{
			ValueFormatter: moneyFormatter(symbol),
			Style:          axisStyle(),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Доходы",
				XValues: xValues,
				YValues: incomeValues,
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Расходы",
				XValues: xValues,
				YValues: expenseValues,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Баланс",
				XValues: xValues,
				YValues: balanceValues,
				Style: chart.Style{
					StrokeColor:     chart.ColorBlue.WithAlpha(150),
					StrokeWidth:     2,
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
		},
	}

	graph.Elements = []chart.Renderable{
		chart.Legend(&graph, axisStyle()),
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render income expense chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// CategoryPieChart создает круговую диаграмму распределения расходов
func (g *ChartGenerator) CategoryPieChart(period analytics.Period, categories []analytics.CategoryAmount, symbol string) ([]byte, error) {
	total := 0.0
	for _, c := range categories {
		total += c.Amount.InexactFloat64()
	}
	if total <= 0 {
		return nil, nil
	}

	values := make([]chart.Value, 0, len(categories))
	for _, c := range categories {
		amount := c.Amount.InexactFloat64()
		percentage := amount / total * 100
		if percentage <= minCategoryShare {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s%.0f (%.1f%%)", c.Name, symbol, amount, percentage),
			Value: amount,
			Style: axisStyle(),
		})
	}
	if len(values) == 0 {
		return nil, nil
	}

	pie := chart.PieChart{
		Title:      "Расходы по категориям: " + periodTitle(period),
		Width:      g.Height + 200,
		Height:     g.Height + 200,
		Values:     values,
		Background: g.background(),
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render category pie chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// GoalsChart показывает прогресс целей в процентах
func (g *ChartGenerator) GoalsChart(goals []model.GoalWithProgress) ([]byte, error) {
	if len(goals) == 0 {
		return nil, nil
	}

	bars := make([]chart.Value, 0, len(goals))
	for _, goal := range goals {
		color := chart.ColorBlue
		switch {
		case goal.Completed:
			color = chart.ColorGreen
		case goal.Expired:
			color = chart.ColorRed
		}
		bars = append(bars, chart.Value{
			Label: goal.Name,
			Value: goal.Progress,
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: color,
			},
		})
	}

	width := g.Width
	if w := len(bars)*120 + 200; w > width {
		width = w
	}

	graph := chart.BarChart{
		Title:      "Прогресс целей",
		Width:      width,
		Height:     g.Height,
		BarWidth:   60,
		Background: g.background(),
		XAxis:      axisStyle(),
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
			Style: axisStyle(),
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render goals chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func hasValues(series analytics.Series) bool {
	if len(series) < 2 {
		return false
	}
	for _, b := range series {
		if !b.Income.IsZero() || !b.Expenses.IsZero() {
			return true
		}
	}
	return false
}

func periodTitle(period analytics.Period) string {
	switch period {
	case analytics.PeriodWeek:
		return "по неделям"
	case analytics.PeriodYear:
		return "по годам"
	default:
		return "по месяцам"
	}
}

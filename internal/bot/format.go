package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ivanoskov/finance_dashboard/internal/analytics"
	"github.com/ivanoskov/finance_dashboard/internal/model"
	"github.com/ivanoskov/finance_dashboard/internal/service"
)

var typeNames = map[model.TransactionType]string{
	model.TypeIncome:     "доход",
	model.TypeExpense:    "расход",
	model.TypeSaving:     "в цель",
	model.TypeWithdrawal: "из цели",
}

func money(symbol string, d decimal.Decimal) string {
	return symbol + d.StringFixed(2)
}

func trendArrow(t analytics.TrendResult) string {
	switch t.Direction {
	case analytics.DirectionUp:
		return "⬆️ " + t.Percent
	case analytics.DirectionDown:
		return "⬇️ " + t.Percent
	default:
		return "➡️ " + t.Percent
	}
}

func formatSummary(s *service.Snapshot) string {
	symbol := s.CurrencySymbol()
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Сводка\n\n"+
		"💰 Доходы: %s\n"+
		"💸 Расходы: %s\n"+
		"🐷 Отложено: %s\n"+
		"💵 Баланс: %s\n\n"+
		"📈 Доходы к прошлому месяцу: %s\n"+
		"📉 Расходы к прошлому месяцу: %s\n",
		money(symbol, s.Totals.Income),
		money(symbol, s.Totals.Expenses),
		money(symbol, s.Totals.Savings),
		money(symbol, s.Totals.Balance),
		trendArrow(s.IncomeTrend),
		trendArrow(s.ExpenseTrend),
	)

	if len(s.Recent) > 0 {
		sb.WriteString("\nПоследние операции:\n")
		for _, t := range s.Recent {
			fmt.Fprintf(&sb, "• %s %s %s", t.Date.String(), typeNames[t.Type], money(symbol, t.Amount.Decimal))
			if t.Category != "" {
				fmt.Fprintf(&sb, " (%s)", t.Category)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatGoals(s *service.Snapshot) string {
	if len(s.Goals) == 0 {
		return "🎯 Целей пока нет"
	}
	symbol := s.CurrencySymbol()
	var sb strings.Builder
	sb.WriteString("🎯 Цели\n\n")
	for _, g := range s.Goals {
		status := "⏳"
		switch {
		case g.Completed:
			status = "✅"
		case g.Expired:
			status = "⌛ просрочена"
		}
		fmt.Fprintf(&sb, "%s %s: %s из %s (%.0f%%)",
			status, g.Name, money(symbol, g.SavedAmount.Decimal), money(symbol, g.TargetAmount.Decimal), g.Progress)
		if !g.Deadline.IsZero() {
			fmt.Fprintf(&sb, ", до %s", g.Deadline.String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatAlerts(s *service.Snapshot) string {
	today := s.Alerts.Today
	pending := s.Alerts.Pending()

	var sb strings.Builder
	if !today.HasAlerts {
		sb.WriteString("🔔 На сегодня напоминаний нет\n")
	} else {
		fmt.Fprintf(&sb, "🔔 Напоминания на сегодня: %d\n\n", today.Count)
		for _, a := range today.Alerts {
			mark := "•"
			if a.Sent {
				mark = "✔️"
			}
			fmt.Fprintf(&sb, "%s %s", mark, a.Title)
			if a.Message != "" {
				fmt.Fprintf(&sb, " - %s", a.Message)
			}
			sb.WriteString("\n")
		}
	}
	if len(pending) > 0 {
		fmt.Fprintf(&sb, "\nВпереди: %d, ближайшее %s (%s)\n", len(pending), pending[0].Title, pending[0].DueDate.String())
	}
	return sb.String()
}

var periodAliases = map[string]analytics.Period{
	"неделя": analytics.PeriodWeek,
	"месяц":  analytics.PeriodMonth,
	"год":    analytics.PeriodYear,
}

func parsePeriod(arg string) (analytics.Period, bool) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if p, ok := periodAliases[arg]; ok {
		return p, true
	}
	return analytics.ParsePeriod(arg)
}

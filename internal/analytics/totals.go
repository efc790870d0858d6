// Package analytics сводит список транзакций в итоги, ряды по периодам и тренды.
// Все функции чистые: без ввода-вывода и без изменения входных данных.
package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// ComputeTotals считает итоги за один проход. Retiro (снятие с цели)
// учитывается как расход, а не как отрицательные сбережения.
// Результат не зависит от порядка транзакций.
func ComputeTotals(transactions []model.Transaction) model.Totals {
	totals := model.Totals{
		Income:   decimal.Zero,
		Expenses: decimal.Zero,
		Savings:  decimal.Zero,
	}

	for _, t := range transactions {
		switch t.Type {
		case model.TypeIncome:
			totals.Income = totals.Income.Add(t.Amount.Decimal)
		case model.TypeExpense, model.TypeWithdrawal:
			totals.Expenses = totals.Expenses.Add(t.Amount.Decimal)
		case model.TypeSaving:
			totals.Savings = totals.Savings.Add(t.Amount.Decimal)
		case model.TypeUnknown:
			// неизвестный tipo с сервера не попадает в итоги
		}
	}

	totals.Balance = totals.Income.Sub(totals.Expenses)
	return totals
}

// FilterTransactions применяет фильтр на клиенте. Пустой фильтр возвращает вход как есть.
func FilterTransactions(transactions []model.Transaction, filter model.TransactionFilter) []model.Transaction {
	if filter.IsEmpty() {
		return transactions
	}
	filtered := make([]model.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if filter.Matches(t) {
			filtered = append(filtered, t)
		}
	}
	if filter.Limit > 0 && len(filtered) > filter.Limit {
		filtered = filtered[:filter.Limit]
	}
	return filtered
}

package model

import "github.com/shopspring/decimal"

// Totals - итоги по видам транзакций. Всегда пересчитываются целиком.
type Totals struct {
	Income   decimal.Decimal `json:"ingresos"`
	Expenses decimal.Decimal `json:"gastos"`
	Savings  decimal.Decimal `json:"ahorro"`
	Balance  decimal.Decimal `json:"saldo"`
}

package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount - денежная сумма с терпимым разбором JSON: null, пустое значение
// или не число дают ноль вместо ошибки.
type Amount struct {
	decimal.Decimal
}

// NewAmount создает сумму из строки вида "1500.50". Неверная строка дает ноль.
func NewAmount(s string) Amount {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}
	}
	return Amount{Decimal: d}
}

// AmountOf оборачивает decimal.
func AmountOf(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// AmountFromInt создает целую сумму.
func AmountFromInt(v int64) Amount {
	return Amount{Decimal: decimal.NewFromInt(v)}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*a = NewAmount(s)
		return nil
	}
	*a = NewAmount(string(data))
	return nil
}

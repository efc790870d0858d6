package model

import (
	"encoding/json"
	"strings"
	"time"
)

// TransactionType - вид транзакции (tipo)
type TransactionType string

const (
	TypeUnknown    TransactionType = ""
	TypeIncome     TransactionType = "ingreso"
	TypeExpense    TransactionType = "gasto"
	TypeSaving     TransactionType = "ahorro"
	TypeWithdrawal TransactionType = "retiro"
)

// TransactionTypes перечисляет все известные виды в порядке отображения
var TransactionTypes = []TransactionType{TypeIncome, TypeExpense, TypeSaving, TypeWithdrawal}

// ParseTransactionType разбирает tipo без учета регистра. Неизвестное значение дает TypeUnknown.
func ParseTransactionType(s string) TransactionType {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeIncome, TypeExpense, TypeSaving, TypeWithdrawal:
		return t
	default:
		return TypeUnknown
	}
}

// Known сообщает, что вид входит в закрытый набор
func (t TransactionType) Known() bool {
	return ParseTransactionType(string(t)) != TypeUnknown
}

// AffectsGoal сообщает, что транзакция этого вида меняет накопления цели
func (t TransactionType) AffectsGoal() bool {
	return t == TypeSaving || t == TypeWithdrawal
}

func (t *TransactionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = TypeUnknown
		return nil
	}
	*t = ParseTransactionType(s)
	return nil
}

type Transaction struct {
	ID          string          `json:"id,omitempty"`
	UserID      string          `json:"user_id"`
	Description string          `json:"description"`
	Amount      Amount          `json:"amount"`
	Type        TransactionType `json:"tipo"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Date        Date            `json:"date"`
	GoalID      *string         `json:"goal_id"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
}

// LinkedGoal возвращает id связанной цели или пустую строку
func (t Transaction) LinkedGoal() string {
	if t.GoalID == nil {
		return ""
	}
	return strings.TrimSpace(*t.GoalID)
}

// TransactionUpdate - частичное обновление транзакции. nil означает "не менять".
type TransactionUpdate struct {
	Description *string
	Amount      *Amount
	Type        *TransactionType
	Category    *string
	Subcategory *string
	Date        *Date
	// Пустая строка отвязывает транзакцию от цели
	GoalID *string
}

// Fields возвращает набор колонок для PostgREST
func (u TransactionUpdate) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.Amount != nil {
		fields["amount"] = *u.Amount
	}
	if u.Type != nil {
		fields["tipo"] = string(*u.Type)
	}
	if u.Category != nil {
		fields["category"] = *u.Category
	}
	if u.Subcategory != nil {
		fields["subcategory"] = *u.Subcategory
	}
	if u.Date != nil {
		fields["date"] = *u.Date
	}
	if u.GoalID != nil {
		if *u.GoalID == "" {
			fields["goal_id"] = nil
		} else {
			fields["goal_id"] = *u.GoalID
		}
	}
	return fields
}

// Apply накладывает обновление на копию транзакции
func (u TransactionUpdate) Apply(t Transaction) Transaction {
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Amount != nil {
		t.Amount = *u.Amount
	}
	if u.Type != nil {
		t.Type = *u.Type
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.Subcategory != nil {
		t.Subcategory = *u.Subcategory
	}
	if u.Date != nil {
		t.Date = *u.Date
	}
	if u.GoalID != nil {
		if *u.GoalID == "" {
			t.GoalID = nil
		} else {
			id := *u.GoalID
			t.GoalID = &id
		}
	}
	return t
}

// TransactionFilter задает выборку транзакций
type TransactionFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Category    string
	Subcategory string
	Limit       int
}

// IsEmpty сообщает, что фильтр ничего не ограничивает
func (f TransactionFilter) IsEmpty() bool {
	return f.StartDate == nil && f.EndDate == nil && f.Category == "" && f.Subcategory == "" && f.Limit == 0
}

// Matches проверяет транзакцию на клиенте. Диапазон дат применяется
// только когда заданы обе границы.
func (f TransactionFilter) Matches(t Transaction) bool {
	if f.StartDate != nil && f.EndDate != nil {
		if t.Date.IsZero() {
			return false
		}
		d := t.Date.Time()
		if d.Before(DateOf(*f.StartDate).Time()) || d.After(DateOf(*f.EndDate).Time()) {
			return false
		}
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.Subcategory != "" && !strings.EqualFold(t.Subcategory, f.Subcategory) {
		return false
	}
	return true
}

package model

import "time"

// DefaultCurrency используется, если в профиле валюта не указана
const DefaultCurrency = "USD"

var currencySymbols = map[string]string{
	"USD": "$",
	"PEN": "S/",
	"EUR": "€",
	"MXN": "MX$",
}

// UserProfile - строка таблицы users. Валюта служит только подписью.
type UserProfile struct {
	ID         string     `json:"id"`
	AuthUserID string     `json:"auth_user_id,omitempty"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Currency   string     `json:"currency,omitempty"`
	PhotoURL   string     `json:"photo_url,omitempty"`
	TelegramID *int64     `json:"telegram_id,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// CurrencyCode возвращает код валюты профиля или значение по умолчанию
func (p UserProfile) CurrencyCode() string {
	if p.Currency == "" {
		return DefaultCurrency
	}
	return p.Currency
}

// CurrencySymbol возвращает символ валюты, для неизвестных кодов "$"
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return "$"
}

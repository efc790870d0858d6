package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/ivanoskov/finance_dashboard/internal/calendar"
)

const dateLayout = "2006-01-02"

// Форматы, в которых Supabase и старые клиенты присылают даты
var dateLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05.999999",
}

// Date - календарная дата без времени суток. Нулевое значение означает
// отсутствие даты (null, пустая строка или строка, которую не удалось разобрать).
type Date struct {
	t time.Time
}

// NewDate создает дату из года, месяца и дня.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf берет календарный день, записанный в t.
func DateOf(t time.Time) Date {
	return Date{t: calendar.Day(t)}
}

// ParseDate разбирает строку в одном из известных форматов.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	return Date{}, false
}

// IsZero сообщает, что дата отсутствует.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Time возвращает полночь UTC этого дня.
func (d Date) Time() time.Time {
	return d.t
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON никогда не возвращает ошибку: неразборчивая дата
// превращается в отсутствующую.
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if parsed, ok := ParseDate(s); ok {
		*d = parsed
	}
	return nil
}

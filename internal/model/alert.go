package model

// AlertType - вид напоминания
type AlertType string

const (
	AlertExpense  AlertType = "expense"
	AlertSaving   AlertType = "saving"
	AlertReminder AlertType = "reminder"
)

// Alert - напоминание со сроком. Active управляет показом на дашборде,
// Sent (enviado) выставляется только явным действием пользователя.
type Alert struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      AlertType `json:"alert_type"`
	DueDate   Date      `json:"due_date"`
	Threshold *Amount   `json:"threshold"`
	Active    bool      `json:"active"`
	Sent      bool      `json:"enviado"`
}

// AlertUpdate - частичное обновление напоминания
type AlertUpdate struct {
	Title     *string
	Message   *string
	Type      *AlertType
	DueDate   *Date
	Threshold *Amount
	Active    *bool
	Sent      *bool
}

func (u AlertUpdate) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.Message != nil {
		fields["message"] = *u.Message
	}
	if u.Type != nil {
		fields["alert_type"] = string(*u.Type)
	}
	if u.DueDate != nil {
		fields["due_date"] = *u.DueDate
	}
	if u.Threshold != nil {
		fields["threshold"] = *u.Threshold
	}
	if u.Active != nil {
		fields["active"] = *u.Active
	}
	if u.Sent != nil {
		fields["enviado"] = *u.Sent
	}
	return fields
}

// Apply накладывает обновление на копию напоминания
func (u AlertUpdate) Apply(a Alert) Alert {
	if u.Title != nil {
		a.Title = *u.Title
	}
	if u.Message != nil {
		a.Message = *u.Message
	}
	if u.Type != nil {
		a.Type = *u.Type
	}
	if u.DueDate != nil {
		a.DueDate = *u.DueDate
	}
	if u.Threshold != nil {
		threshold := *u.Threshold
		a.Threshold = &threshold
	}
	if u.Active != nil {
		a.Active = *u.Active
	}
	if u.Sent != nil {
		a.Sent = *u.Sent
	}
	return a
}

// TodayAlerts - напоминания со сроком сегодня для бейджа на дашборде
type TodayAlerts struct {
	HasAlerts bool    `json:"hasAlerts"`
	Count     int     `json:"count"`
	Alerts    []Alert `json:"alerts"`
}

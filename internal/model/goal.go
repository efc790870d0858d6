package model

// Goal - финансовая цель (таблица financial_goals)
type Goal struct {
	ID           string `json:"id,omitempty"`
	UserID       string `json:"user_id"`
	Name         string `json:"goal_name"`
	TargetAmount Amount `json:"target_amount"`
	SavedAmount  Amount `json:"saved_amount"`
	Deadline     Date   `json:"deadline"`
	Description  string `json:"description,omitempty"`
}

// GoalWithProgress - цель с вычисляемыми полями. Эти поля никогда не сохраняются.
type GoalWithProgress struct {
	Goal
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
	Expired   bool    `json:"expired"`
}

// GoalUpdate - частичное обновление цели
type GoalUpdate struct {
	Name         *string
	TargetAmount *Amount
	SavedAmount  *Amount
	Deadline     *Date
	Description  *string
}

func (u GoalUpdate) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if u.Name != nil {
		fields["goal_name"] = *u.Name
	}
	if u.TargetAmount != nil {
		fields["target_amount"] = *u.TargetAmount
	}
	if u.SavedAmount != nil {
		fields["saved_amount"] = *u.SavedAmount
	}
	if u.Deadline != nil {
		fields["deadline"] = *u.Deadline
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	return fields
}

// Package alerts раскладывает напоминания на ожидающие и сегодняшние.
package alerts

import (
	"sort"
	"time"

	"github.com/ivanoskov/finance_dashboard/internal/calendar"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// AlertView - напоминание с признаком Pending: срок еще не наступил
type AlertView struct {
	model.Alert
	Pending bool `json:"pending"`
}

// Classification - результат разбора напоминаний
type Classification struct {
	Alerts []AlertView        `json:"alerts"`
	Today  model.TodayAlerts `json:"today"`
}

// Classify сравнивает сроки напоминаний с сегодняшним днем только по дате.
// now должен быть уже переведен в часовой пояс пользователя.
//
// Напоминание без срока не бывает ни ожидающим, ни сегодняшним.
// В сегодняшние попадают только активные; неотправленные идут первыми.
func Classify(alerts []model.Alert, now time.Time) Classification {
	today := calendar.Day(now)

	views := make([]AlertView, 0, len(alerts))
	dueToday := make([]model.Alert, 0)
	for _, a := range alerts {
		view := AlertView{Alert: a}
		if !a.DueDate.IsZero() {
			due := a.DueDate.Time()
			view.Pending = due.After(today)
			if a.Active && due.Equal(today) {
				dueToday = append(dueToday, a)
			}
		}
		views = append(views, view)
	}

	sort.SliceStable(dueToday, func(i, j int) bool {
		return !dueToday[i].Sent && dueToday[j].Sent
	})

	return Classification{
		Alerts: views,
		Today: model.TodayAlerts{
			HasAlerts: len(dueToday) > 0,
			Count:     len(dueToday),
			Alerts:    dueToday,
		},
	}
}

// Pending возвращает только напоминания, срок которых еще впереди
func (c Classification) Pending() []model.Alert {
	var pending []model.Alert
	for _, v := range c.Alerts {
		if v.Pending {
			pending = append(pending, v.Alert)
		}
	}
	return pending
}

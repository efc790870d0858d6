// Package calendar содержит операции над календарными датами без учета времени суток.
package calendar

import "time"

// Day возвращает полночь (UTC) календарного дня, записанного в t.
// Год, месяц и день берутся в собственном смещении t, поэтому
// "2024-06-15T23:30:00-05:00" остается 15 июня.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today возвращает текущий календарный день в часовом поясе loc.
// Если loc == nil, используется пояс самого now.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	return Day(now)
}

// Before сообщает, что календарный день a строго раньше дня b.
func Before(a, b time.Time) bool {
	return Day(a).Before(Day(b))
}

// After сообщает, что календарный день a строго позже дня b.
func After(a, b time.Time) bool {
	return Day(a).After(Day(b))
}

// Equal сообщает, что a и b приходятся на один календарный день.
func Equal(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// Within сообщает, что день t лежит в отрезке [start, end] включительно.
func Within(t, start, end time.Time) bool {
	d := Day(t)
	return !d.Before(Day(start)) && !d.After(Day(end))
}

// internal/analytics/calendar.go
package analytics

import (
	"math"
	"time"
)

// TrendWeeks is the number of trailing weeks in a weekly trend.
const TrendWeeks = 8

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart returns midnight of the Monday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthStart returns midnight of the first day of t's month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b. DST shifts are absorbed by
// rounding.
func daysBetween(a, b time.Time) int {
	b = b.In(a.Location())
	return int(math.Round(startOfDay(b).Sub(startOfDay(a)).Hours() / 24))
}

func within(t *time.Time, from, to time.Time) bool {
	if t == nil {
		return false
	}
	return !t.Before(from) && t.Before(to)
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Package recurrence computes follow-on deadlines for recurring templates.
package recurrence

import (
	"fmt"
	"time"

	"universe-planner/internal/model"
)

// NextDeadline adds interval units to from. Month steps that land past the
// end of the target month are clamped to its last day, so Jan 31 + 1 month is
// the last day of February. The time of day is preserved.
func NextDeadline(from time.Time, unit model.FrequencyUnit, interval int) (time.Time, error) {
	if interval <= 0 {
		return time.Time{}, fmt.Errorf("interval must be positive, got %d", interval)
	}
	switch unit {
	case model.FrequencyDay:
		return from.AddDate(0, 0, interval), nil
	case model.FrequencyWeek:
		return from.AddDate(0, 0, 7*interval), nil
	case model.FrequencyMonth:
		return addMonths(from, interval), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported frequency unit %q", unit)
	}
}

// For returns the next deadline of a template counted from from.
func For(rule *model.RecurringTask, from time.Time) (time.Time, error) {
	return NextDeadline(from, rule.FrequencyUnit, rule.FrequencyInterval)
}

func addMonths(from time.Time, months int) time.Time {
	year, month, day := from.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, from.Location()).AddDate(0, months, 0)
	if last := daysInMonth(first.Month(), first.Year()); day > last {
		day = last
	}
	hour, min, sec := from.Clock()
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, from.Nanosecond(), from.Location())
}

func daysInMonth(month time.Month, year int) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

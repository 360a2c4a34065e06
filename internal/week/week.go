// Package week computes calendar day and Monday-to-Sunday week boundaries
// relative to a reference moment.
package week

import (
	"time"

	"github.com/jinzhu/now"
)

var mondayFirst = &now.Config{WeekStartDay: time.Monday}

// Start returns Monday 00:00 of the week containing t, in t's location.
func Start(t time.Time) time.Time {
	return mondayFirst.With(t).BeginningOfWeek()
}

// End returns the last instant of Sunday of the week containing t.
func End(t time.Time) time.Time {
	return mondayFirst.With(t).EndOfWeek()
}

// DayStart returns midnight of t's calendar day.
func DayStart(t time.Time) time.Time {
	return mondayFirst.With(t).BeginningOfDay()
}

// DayEnd returns the last instant of t's calendar day.
func DayEnd(t time.Time) time.Time {
	return mondayFirst.With(t).EndOfDay()
}

// Boundary answers calendar questions against one captured "now".
// Day and week edges are taken in now's location.
type Boundary struct {
	now time.Time
}

func At(t time.Time) Boundary {
	return Boundary{now: t}
}

func (b Boundary) Now() time.Time { return b.now }

func (b Boundary) IsToday(d time.Time) bool {
	return within(d, DayStart(b.now), DayEnd(b.now))
}

// IsOverdue reports whether d falls on a calendar day before today.
func (b Boundary) IsOverdue(d time.Time) bool {
	return d.Before(DayStart(b.now))
}

func (b Boundary) IsThisWeek(d time.Time) bool {
	return within(d, Start(b.now), End(b.now))
}

func (b Boundary) IsNextWeek(d time.Time) bool {
	start := Start(b.now).AddDate(0, 0, 7)
	end := Start(b.now).AddDate(0, 0, 14).Add(-time.Nanosecond)
	return within(d, start, end)
}

func within(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

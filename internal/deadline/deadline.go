// Package deadline sorts tasks into deadline-proximity buckets.
package deadline

import (
	"time"

	"universe-planner/internal/model"
	"universe-planner/internal/week"
)

// Bucket is a deadline-proximity group on the dashboard.
type Bucket string

const (
	NoDeadline Bucket = "no_deadline"
	Overdue    Bucket = "overdue"
	Today      Bucket = "today"
	ThisWeek   Bucket = "this_week"
	NextWeek   Bucket = "next_week"
	Later      Bucket = "later"
)

// Buckets is the display order of dashboard groups.
var Buckets = []Bucket{Overdue, Today, ThisWeek, NextWeek, Later, NoDeadline}

// Rank returns the position of b in Buckets.
func (b Bucket) Rank() int {
	for i, v := range Buckets {
		if v == b {
			return i
		}
	}
	return len(Buckets)
}

// Classify places a deadline relative to now. The checks run from most to
// least specific: a date that is today and in this week is Today.
func Classify(deadlineAt *time.Time, now time.Time) Bucket {
	return ClassifyAt(deadlineAt, week.At(now))
}

// ClassifyAt classifies against an already captured boundary.
func ClassifyAt(deadlineAt *time.Time, b week.Boundary) Bucket {
	switch {
	case deadlineAt == nil:
		return NoDeadline
	case b.IsOverdue(*deadlineAt):
		return Overdue
	case b.IsToday(*deadlineAt):
		return Today
	case b.IsThisWeek(*deadlineAt):
		return ThisWeek
	case b.IsNextWeek(*deadlineAt):
		return NextWeek
	default:
		return Later
	}
}

func ClassifyTask(task *model.Task, now time.Time) Bucket {
	return Classify(task.DeadlineAt, now)
}

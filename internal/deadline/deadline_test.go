package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"universe-planner/internal/model"
)

func at(y int, m time.Month, d, h, min int) *time.Time {
	t := time.Date(y, m, d, h, min, 0, 0, time.UTC)
	return &t
}

func TestClassify(t *testing.T) {
	// Wednesday 2024-01-10.
	now := *at(2024, time.January, 10, 9, 0)

	tests := []struct {
		name string
		d    *time.Time
		want Bucket
	}{
		{"no deadline", nil, NoDeadline},
		{"yesterday", at(2024, time.January, 9, 23, 59), Overdue},
		{"earlier today", at(2024, time.January, 10, 1, 0), Today},
		{"today 23:59", at(2024, time.January, 10, 23, 59), Today},
		{"this sunday", at(2024, time.January, 14, 8, 0), ThisWeek},
		{"next monday", at(2024, time.January, 15, 0, 0), NextWeek},
		{"next sunday", at(2024, time.January, 21, 23, 59), NextWeek},
		{"in three weeks", at(2024, time.January, 31, 12, 0), Later},
		{"last year", at(2023, time.December, 1, 12, 0), Overdue},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.d, now))
		})
	}
}

func TestClassifyTodayWinsOverThisWeek(t *testing.T) {
	// Across a whole week, a deadline on now's calendar day is always Today.
	for day := 8; day <= 14; day++ {
		now := time.Date(2024, time.January, day, 12, 0, 0, 0, time.UTC)
		for _, h := range []int{0, 12, 23} {
			d := time.Date(2024, time.January, day, h, 0, 0, 0, time.UTC)
			assert.Equal(t, Today, Classify(&d, now), "day %d hour %d", day, h)
		}
	}
}

func TestClassifyIsStable(t *testing.T) {
	now := *at(2024, time.March, 3, 18, 0)
	for offset := -20; offset <= 20; offset++ {
		d := now.AddDate(0, 0, offset)
		first := Classify(&d, now)
		assert.Equal(t, first, Classify(&d, now))
		assert.Less(t, first.Rank(), len(Buckets))
	}
}

func TestClassifyTask(t *testing.T) {
	now := *at(2024, time.January, 10, 9, 0)
	task := &model.Task{DeadlineAt: at(2024, time.January, 16, 10, 0)}
	assert.Equal(t, NextWeek, ClassifyTask(task, now))
}

func TestNextMondayOnSunday(t *testing.T) {
	// On a Sunday, the following Monday starts the next week.
	now := *at(2024, time.January, 14, 20, 0)
	assert.Equal(t, NextWeek, Classify(at(2024, time.January, 15, 9, 0), now))
}

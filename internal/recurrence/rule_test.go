package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"universe-planner/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 17, 30, 0, 0, time.UTC)
}

func TestNextDeadline(t *testing.T) {
	tests := []struct {
		name     string
		from     time.Time
		unit     model.FrequencyUnit
		interval int
		want     time.Time
	}{
		{"daily", day(2024, time.January, 10), model.FrequencyDay, 1, day(2024, time.January, 11)},
		{"every three days across month", day(2024, time.January, 30), model.FrequencyDay, 3, day(2024, time.February, 2)},
		{"weekly", day(2024, time.January, 10), model.FrequencyWeek, 1, day(2024, time.January, 17)},
		{"biweekly", day(2024, time.January, 10), model.FrequencyWeek, 2, day(2024, time.January, 24)},
		{"monthly", day(2024, time.January, 15), model.FrequencyMonth, 1, day(2024, time.February, 15)},
		{"jan 31 leap year clamps", day(2024, time.January, 31), model.FrequencyMonth, 1, day(2024, time.February, 29)},
		{"jan 31 common year clamps", day(2023, time.January, 31), model.FrequencyMonth, 1, day(2023, time.February, 28)},
		{"march 31 to april 30", day(2024, time.March, 31), model.FrequencyMonth, 1, day(2024, time.April, 30)},
		{"across year", day(2024, time.November, 30), model.FrequencyMonth, 3, day(2025, time.February, 28)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextDeadline(tc.from, tc.unit, tc.interval)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextDeadlineDoesNotMutateInput(t *testing.T) {
	from := day(2024, time.January, 31)
	copyOf := from
	_, err := NextDeadline(from, model.FrequencyMonth, 1)
	require.NoError(t, err)
	assert.Equal(t, copyOf, from)
}

func TestNextDeadlineRejectsBadRule(t *testing.T) {
	_, err := NextDeadline(day(2024, time.January, 1), model.FrequencyWeek, 0)
	assert.Error(t, err)
	_, err = NextDeadline(day(2024, time.January, 1), "year", 1)
	assert.Error(t, err)
}

func TestFor(t *testing.T) {
	rule := &model.RecurringTask{FrequencyUnit: model.FrequencyWeek, FrequencyInterval: 1}
	got, err := For(rule, day(2024, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.January, 17), got)
}

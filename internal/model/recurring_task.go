package model

import "time"

// FrequencyUnit is the calendar step of a recurring template.
type FrequencyUnit string

const (
	FrequencyDay   FrequencyUnit = "day"
	FrequencyWeek  FrequencyUnit = "week"
	FrequencyMonth FrequencyUnit = "month"
)

func (u FrequencyUnit) Valid() bool {
	return u == FrequencyDay || u == FrequencyWeek || u == FrequencyMonth
}

// RecurringTask is a template spawning Task instances every FrequencyInterval units.
type RecurringTask struct {
	ID                     uint          `gorm:"primaryKey" json:"id"`
	Name                   string        `json:"name"`
	FrequencyUnit          FrequencyUnit `json:"frequency_unit"`
	FrequencyInterval      int           `json:"frequency_interval"`
	DefaultDurationMinutes int           `json:"default_duration_minutes"`
	Active                 bool          `json:"active"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

func (r *RecurringTask) Ref() Ref { return RefOf(KindRecurringTask, r.ID) }

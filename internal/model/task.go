package model

import "time"

// TaskStatus is the persisted lifecycle state of a task.
type TaskStatus string

const (
	TaskOpen      TaskStatus = "open"
	TaskLate      TaskStatus = "late"
	TaskCompleted TaskStatus = "completed"
	TaskSkipped   TaskStatus = "skipped"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskOpen, TaskLate, TaskCompleted, TaskSkipped:
		return true
	}
	return false
}

// Task represents a single item in the planner.
type Task struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	EstimatedTime   int        `json:"estimated_time"` // minutes
	DeadlineAt      *time.Time `gorm:"index" json:"deadline_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	SkippedAt       *time.Time `json:"skipped_at"`
	SnoozeUntil     *time.Time `json:"snooze_until"`
	Status          TaskStatus `gorm:"default:open;index" json:"status"`
	RecurringTaskID *uint      `gorm:"index" json:"recurring_task_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Terminal reports whether a completion or skip marker is set.
func (t *Task) Terminal() bool {
	return t.CompletedAt != nil || t.SkippedAt != nil
}

// Snoozed reports whether the task is hidden from today listings at now.
func (t *Task) Snoozed(now time.Time) bool {
	return t.SnoozeUntil != nil && t.SnoozeUntil.After(now)
}

func (t *Task) Ref() Ref { return RefOf(KindTask, t.ID) }

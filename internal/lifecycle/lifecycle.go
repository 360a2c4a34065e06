// Package lifecycle holds the task state machine: open and late are driven by
// the deadline, completed and skipped are terminal.
package lifecycle

import (
	"fmt"
	"time"

	"universe-planner/internal/model"
	"universe-planner/internal/week"
)

// ComputedStatus derives the display status of a task at now.
func ComputedStatus(task *model.Task, now time.Time) model.TaskStatus {
	switch {
	case task.CompletedAt != nil:
		return model.TaskCompleted
	case task.SkippedAt != nil:
		return model.TaskSkipped
	case isLate(task, now):
		return model.TaskLate
	case task.Status == "" || task.Status == model.TaskLate:
		// A late status whose deadline moved out of the past is stale.
		return model.TaskOpen
	default:
		return task.Status
	}
}

// Reconcile recomputes the persisted status field and reports whether it
// changed. It is idempotent and runs before every task write.
func Reconcile(task *model.Task, now time.Time) bool {
	before := task.Status
	switch {
	case task.CompletedAt != nil:
		task.Status = model.TaskCompleted
	case task.SkippedAt != nil:
		task.Status = model.TaskSkipped
	case isLate(task, now):
		task.Status = model.TaskLate
	case task.Status == model.TaskLate || task.Status == "":
		task.Status = model.TaskOpen
	case task.Status == model.TaskCompleted || task.Status == model.TaskSkipped:
		// Terminal status without its marker, e.g. after an edit cleared it.
		task.Status = model.TaskOpen
	}
	return task.Status != before
}

// Complete marks the task done at now.
func Complete(task *model.Task, now time.Time) error {
	if task.Terminal() {
		return terminalConflict(task, "complete")
	}
	task.CompletedAt = &now
	task.Status = model.TaskCompleted
	return nil
}

// Skip marks the task skipped at now.
func Skip(task *model.Task, now time.Time) error {
	if task.Terminal() {
		return terminalConflict(task, "skip")
	}
	task.SkippedAt = &now
	task.Status = model.TaskSkipped
	return nil
}

// Snooze hides the task from today listings until the given moment; nil
// clears the snooze. Status is left untouched.
func Snooze(task *model.Task, until *time.Time, now time.Time) error {
	if task.Terminal() {
		return terminalConflict(task, "snooze")
	}
	if until != nil && !until.After(now) {
		return model.FieldError("snooze_until", "must be in the future")
	}
	task.SnoozeUntil = until
	return nil
}

func isLate(task *model.Task, now time.Time) bool {
	if task.Terminal() || task.DeadlineAt == nil {
		return false
	}
	return week.At(now).IsOverdue(*task.DeadlineAt)
}

func terminalConflict(task *model.Task, action string) error {
	return fmt.Errorf("cannot %s task %d in status %s: %w", action, task.ID, ComputedStatus(task, time.Time{}), model.ErrConflict)
}

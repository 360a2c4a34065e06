package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"universe-planner/internal/lifecycle"
	"universe-planner/internal/model"
)

// TaskRepository handles CRUD for tasks. Every write recomputes the derived
// status first.
type TaskRepository struct {
	entityRepo[model.Task]
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{entityRepo[model.Task]{db: db, kind: model.KindTask}}
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	IncludeTerminal bool
	RecurringTaskID *uint
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task, now time.Time) error {
	lifecycle.Reconcile(task, now)
	storeUTC(task)
	return r.create(ctx, task)
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task, now time.Time) error {
	lifecycle.Reconcile(task, now)
	storeUTC(task)
	return r.save(ctx, task)
}

// storeUTC moves every timestamp to UTC. sqlite compares them as text, so
// one zone keeps the column order equal to time order.
func storeUTC(task *model.Task) {
	for _, p := range []**time.Time{&task.DeadlineAt, &task.CompletedAt, &task.SkippedAt, &task.SnoozeUntil} {
		if *p != nil {
			u := (*p).UTC()
			*p = &u
		}
	}
	task.CreatedAt = task.CreatedAt.UTC()
}

// List returns tasks ordered by deadline (none last), newest first on ties.
func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx)
	if !filter.IncludeTerminal {
		q = q.Where("completed_at IS NULL AND skipped_at IS NULL")
	}
	if filter.RecurringTaskID != nil {
		q = q.Where("recurring_task_id = ?", *filter.RecurringTaskID)
	}
	var tasks []model.Task
	if err := q.Order("deadline_at NULLS LAST, created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListIncomplete returns tasks without a completion or skip marker.
func (r *TaskRepository) ListIncomplete(ctx context.Context) ([]model.Task, error) {
	return r.List(ctx, TaskFilter{})
}

// LatestInstance returns the newest task spawned from a template, or nil.
func (r *TaskRepository) LatestInstance(ctx context.Context, recurringTaskID uint) (*model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("recurring_task_id = ?", recurringTaskID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("latest instance of %d: %w", recurringTaskID, err)
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

// ReconcileAll rewrites the status of every non-terminal task whose derived
// status drifted, and returns how many changed.
func (r *TaskRepository) ReconcileAll(ctx context.Context, now time.Time) (int, error) {
	tasks, err := r.ListIncomplete(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range tasks {
		task := &tasks[i]
		if !lifecycle.Reconcile(task, now) {
			continue
		}
		if err := r.db.WithContext(ctx).Model(task).UpdateColumn("status", task.Status).Error; err != nil {
			return changed, fmt.Errorf("reconcile task %d: %w", task.ID, err)
		}
		changed++
	}
	return changed, nil
}

// DetachRecurring clears the template reference of every instance of it.
func (r *TaskRepository) DetachRecurring(ctx context.Context, recurringTaskID uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("recurring_task_id = ?", recurringTaskID).
		UpdateColumn("recurring_task_id", nil).Error; err != nil {
		return fmt.Errorf("detach instances of %d: %w", recurringTaskID, err)
	}
	return nil
}

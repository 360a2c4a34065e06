package repository

import (
	"context"

	"gorm.io/gorm"

	"universe-planner/internal/model"
)

// RecurringTaskRepository manages recurring task templates.
type RecurringTaskRepository struct {
	entityRepo[model.RecurringTask]
}

func NewRecurringTaskRepository(db *gorm.DB) *RecurringTaskRepository {
	return &RecurringTaskRepository{entityRepo[model.RecurringTask]{db: db, kind: model.KindRecurringTask}}
}

func (r *RecurringTaskRepository) Create(ctx context.Context, rt *model.RecurringTask) error {
	return r.create(ctx, rt)
}

func (r *RecurringTaskRepository) Save(ctx context.Context, rt *model.RecurringTask) error {
	return r.save(ctx, rt)
}

func (r *RecurringTaskRepository) List(ctx context.Context) ([]model.RecurringTask, error) {
	return r.list(ctx, "active DESC, name ASC, id ASC")
}

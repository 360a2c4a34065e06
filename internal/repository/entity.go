package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"universe-planner/internal/model"
)

// entityRepo holds the CRUD shared by every table keyed by a numeric id.
type entityRepo[T any] struct {
	db   *gorm.DB
	kind model.Kind
}

func (r entityRepo[T]) create(ctx context.Context, v *T) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("create %s: %w", r.kind, err)
	}
	return nil
}

func (r entityRepo[T]) save(ctx context.Context, v *T) error {
	if err := r.db.WithContext(ctx).Save(v).Error; err != nil {
		return fmt.Errorf("save %s: %w", r.kind, err)
	}
	return nil
}

// FindByID loads one row or returns a wrapped model.ErrNotFound.
func (r entityRepo[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var v T
	err := r.db.WithContext(ctx).First(&v, id).Error
	switch {
	case err == nil:
		return &v, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, model.NotFound(r.kind, id)
	default:
		return nil, fmt.Errorf("find %s %d: %w", r.kind, id, err)
	}
}

// FindByIDs loads the rows with the given ids, in id order.
func (r entityRepo[T]) FindByIDs(ctx context.Context, ids []uint) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []T
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find %s by ids: %w", r.kind, err)
	}
	return out, nil
}

// Delete removes a row by id.
func (r entityRepo[T]) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", r.kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound(r.kind, id)
	}
	return nil
}

func (r entityRepo[T]) list(ctx context.Context, order string) ([]T, error) {
	var out []T
	if err := r.db.WithContext(ctx).Order(order).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", r.kind, err)
	}
	return out, nil
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"universe-planner/internal/model"
)

// UniverseRepository manages universes.
type UniverseRepository struct {
	entityRepo[model.Universe]
}

func NewUniverseRepository(db *gorm.DB) *UniverseRepository {
	return &UniverseRepository{entityRepo[model.Universe]{db: db, kind: model.KindUniverse}}
}

func (r *UniverseRepository) Create(ctx context.Context, u *model.Universe) error {
	return r.create(ctx, u)
}

func (r *UniverseRepository) Save(ctx context.Context, u *model.Universe) error {
	return r.save(ctx, u)
}

func (r *UniverseRepository) List(ctx context.Context) ([]model.Universe, error) {
	return r.list(ctx, "name ASC, id ASC")
}

// ParentOf returns the parent id of a universe, nil for roots.
func (r *UniverseRepository) ParentOf(ctx context.Context, id uint) (*uint, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.ParentID, nil
}

// DetachChildren turns the children of a universe into roots.
func (r *UniverseRepository) DetachChildren(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Universe{}).
		Where("parent_id = ?", id).
		UpdateColumn("parent_id", nil).Error; err != nil {
		return fmt.Errorf("detach children of universe %d: %w", id, err)
	}
	return nil
}

package membership

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"universe-planner/internal/model"
)

// Registry resolves a kind to the table that stores it.
type Registry map[model.Kind]interface{}

// DefaultRegistry covers every entity kind of the planner.
func DefaultRegistry() Registry {
	return Registry{
		model.KindUniverse:      &model.Universe{},
		model.KindTask:          &model.Task{},
		model.KindIdea:          &model.Idea{},
		model.KindIdeaPool:      &model.IdeaPool{},
		model.KindRecurringTask: &model.RecurringTask{},
	}
}

// Exists reports whether the referenced row is present.
func (r Registry) Exists(ctx context.Context, db *gorm.DB, ref model.Ref) (bool, error) {
	proto, ok := r[ref.Kind]
	if !ok {
		return false, fmt.Errorf("unregistered kind %q", ref.Kind)
	}
	var count int64
	if err := db.WithContext(ctx).Model(proto).Where("id = ?", ref.ID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("lookup %s: %w", ref, err)
	}
	return count > 0, nil
}

// MustExist returns a wrapped model.ErrNotFound for missing rows.
func (r Registry) MustExist(ctx context.Context, db *gorm.DB, ref model.Ref) error {
	ok, err := r.Exists(ctx, db, ref)
	if err != nil {
		return err
	}
	if !ok {
		return model.NotFound(ref.Kind, ref.ID)
	}
	return nil
}

// ownedKinds lists which target kinds each owner kind may link to.
var ownedKinds = map[model.Kind][]model.Kind{
	model.KindUniverse: {model.KindTask, model.KindIdea, model.KindIdeaPool, model.KindRecurringTask},
	model.KindIdeaPool: {model.KindIdea},
}

// CanOwn reports whether owner links of ownerKind may point at targetKind.
func CanOwn(ownerKind, targetKind model.Kind) bool {
	for _, k := range ownedKinds[ownerKind] {
		if k == targetKind {
			return true
		}
	}
	return false
}

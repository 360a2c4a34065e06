// Package membership manages owner-to-item links: universes owning tasks,
// ideas, idea pools and recurring templates, and idea pools owning ideas.
package membership

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"universe-planner/internal/model"
)

const orderByPosition = "position IS NULL, position ASC, id ASC"

// Graph reads and replaces membership links.
type Graph struct {
	db       *gorm.DB
	registry Registry
}

func NewGraph(db *gorm.DB, registry Registry) *Graph {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Graph{db: db, registry: registry}
}

// WithTx returns a graph bound to an open transaction.
func (g *Graph) WithTx(tx *gorm.DB) *Graph {
	return &Graph{db: tx, registry: g.registry}
}

func (g *Graph) Registry() Registry { return g.registry }

// SetMembers replaces every ownerKind link of target with one link per owner,
// marking owners[primaryIndex] primary. An out-of-range index selects the
// first owner. Orders of owners kept across the replace are preserved. The
// whole replace happens in one transaction.
func (g *Graph) SetMembers(ctx context.Context, ownerKind model.Kind, ownerIDs []uint, target model.Ref, primaryIndex int) error {
	if !CanOwn(ownerKind, target.Kind) {
		return fmt.Errorf("%s cannot own %s: %w", ownerKind, target.Kind, model.ErrValidation)
	}
	seen := make(map[uint]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		if _, dup := seen[id]; dup {
			return model.FieldError(string(ownerKind)+"_ids", fmt.Sprintf("%s %d listed twice", ownerKind, id))
		}
		seen[id] = struct{}{}
	}
	if primaryIndex < 0 || primaryIndex >= len(ownerIDs) {
		primaryIndex = 0
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := g.registry.MustExist(ctx, tx, target); err != nil {
			return err
		}
		for _, id := range ownerIDs {
			if err := g.registry.MustExist(ctx, tx, model.RefOf(ownerKind, id)); err != nil {
				return err
			}
		}

		var existing []model.MembershipLink
		if err := scopeTarget(tx, ownerKind, target).Find(&existing).Error; err != nil {
			return fmt.Errorf("load links: %w", err)
		}
		orders := make(map[uint]*int, len(existing))
		for _, l := range existing {
			orders[l.OwnerID] = l.Order
		}

		if err := scopeTarget(tx, ownerKind, target).Delete(&model.MembershipLink{}).Error; err != nil {
			return fmt.Errorf("delete links: %w", err)
		}
		if len(ownerIDs) == 0 {
			return nil
		}

		links := make([]model.MembershipLink, 0, len(ownerIDs))
		for i, id := range ownerIDs {
			links = append(links, model.MembershipLink{
				OwnerKind:  ownerKind,
				OwnerID:    id,
				TargetKind: target.Kind,
				TargetID:   target.ID,
				IsPrimary:  i == primaryIndex,
				Order:      orders[id],
			})
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("insert links: %w", err)
		}
		return nil
	})
}

// PrimaryOwner returns the primary ownerKind link of target, or nil when the
// target has none.
func (g *Graph) PrimaryOwner(ctx context.Context, ownerKind model.Kind, target model.Ref) (*model.MembershipLink, error) {
	var link model.MembershipLink
	err := scopeTarget(g.db.WithContext(ctx), ownerKind, target).
		Where("is_primary = ?", true).
		Order("id ASC").
		First(&link).Error
	switch {
	case err == nil:
		return &link, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find primary %s of %s: %w", ownerKind, target, err)
	}
}

// Links lists the ownerKind links of target, primary first.
func (g *Graph) Links(ctx context.Context, ownerKind model.Kind, target model.Ref) ([]model.MembershipLink, error) {
	var links []model.MembershipLink
	if err := scopeTarget(g.db.WithContext(ctx), ownerKind, target).
		Order("is_primary DESC, id ASC").
		Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list links of %s: %w", target, err)
	}
	return links, nil
}

// LinksForTargets loads ownerKind links of many targets of one kind. A nil
// id list loads the links of every target of that kind.
func (g *Graph) LinksForTargets(ctx context.Context, ownerKind, targetKind model.Kind, targetIDs []uint) ([]model.MembershipLink, error) {
	var links []model.MembershipLink
	q := g.db.WithContext(ctx).Where("owner_kind = ? AND target_kind = ?", ownerKind, targetKind)
	if targetIDs != nil {
		if len(targetIDs) == 0 {
			return nil, nil
		}
		q = q.Where("target_id IN ?", targetIDs)
	}
	if err := q.Order("id ASC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list %s links: %w", targetKind, err)
	}
	return links, nil
}

// TargetsOf lists the links an owner holds to targets of one kind, in
// display order.
func (g *Graph) TargetsOf(ctx context.Context, owner model.Ref, targetKind model.Kind) ([]model.MembershipLink, error) {
	var links []model.MembershipLink
	if err := g.db.WithContext(ctx).
		Where("owner_kind = ? AND owner_id = ? AND target_kind = ?", owner.Kind, owner.ID, targetKind).
		Order(orderByPosition).
		Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list %s of %s: %w", targetKind, owner, err)
	}
	return links, nil
}

// CopyLinks gives to the same ownerKind links as from, replacing any it had.
// With primaryOnly set only the primary link is copied. It returns the number
// of links written.
func (g *Graph) CopyLinks(ctx context.Context, ownerKind model.Kind, from, to model.Ref, primaryOnly bool) (int, error) {
	if !CanOwn(ownerKind, to.Kind) {
		return 0, fmt.Errorf("%s cannot own %s: %w", ownerKind, to.Kind, model.ErrValidation)
	}
	var copied int
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := scopeTarget(tx, ownerKind, from)
		if primaryOnly {
			q = q.Where("is_primary = ?", true)
		}
		var source []model.MembershipLink
		if err := q.Order("id ASC").Find(&source).Error; err != nil {
			return fmt.Errorf("load links of %s: %w", from, err)
		}
		if err := scopeTarget(tx, ownerKind, to).Delete(&model.MembershipLink{}).Error; err != nil {
			return fmt.Errorf("delete links of %s: %w", to, err)
		}
		if len(source) == 0 {
			return nil
		}
		links := make([]model.MembershipLink, 0, len(source))
		for _, l := range source {
			links = append(links, model.MembershipLink{
				OwnerKind:  l.OwnerKind,
				OwnerID:    l.OwnerID,
				TargetKind: to.Kind,
				TargetID:   to.ID,
				IsPrimary:  l.IsPrimary,
				Order:      l.Order,
			})
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("insert links of %s: %w", to, err)
		}
		copied = len(links)
		return nil
	})
	return copied, err
}

// SetOrder writes positions 0..n-1 on the owner's links to targetIDs, in the
// given order. Every target must already be linked to the owner.
func (g *Graph) SetOrder(ctx context.Context, owner model.Ref, targetKind model.Kind, targetIDs []uint) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range targetIDs {
			res := tx.Model(&model.MembershipLink{}).
				Where("owner_kind = ? AND owner_id = ? AND target_kind = ? AND target_id = ?", owner.Kind, owner.ID, targetKind, id).
				Update("position", i)
			if res.Error != nil {
				return fmt.Errorf("order %s %d: %w", targetKind, id, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%s %d is not linked to %s: %w", targetKind, id, owner, model.ErrNotFound)
			}
		}
		return nil
	})
}

// RemoveTarget deletes every link pointing at target, of any owner kind.
func (g *Graph) RemoveTarget(ctx context.Context, target model.Ref) error {
	if err := g.db.WithContext(ctx).
		Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
		Delete(&model.MembershipLink{}).Error; err != nil {
		return fmt.Errorf("remove links to %s: %w", target, err)
	}
	return nil
}

// RemoveOwner deletes every link held by owner.
func (g *Graph) RemoveOwner(ctx context.Context, owner model.Ref) error {
	if err := g.db.WithContext(ctx).
		Where("owner_kind = ? AND owner_id = ?", owner.Kind, owner.ID).
		Delete(&model.MembershipLink{}).Error; err != nil {
		return fmt.Errorf("remove links of %s: %w", owner, err)
	}
	return nil
}

func scopeTarget(db *gorm.DB, ownerKind model.Kind, target model.Ref) *gorm.DB {
	return db.Where("owner_kind = ? AND target_kind = ? AND target_id = ?", ownerKind, target.Kind, target.ID)
}

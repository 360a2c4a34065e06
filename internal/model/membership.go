package model

import "time"

// MembershipLink ties an owner (universe or idea pool) to a target entity.
// For a given owner kind and target, at most one link is primary.
type MembershipLink struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OwnerKind  Kind      `gorm:"size:32;uniqueIndex:idx_membership_pair,priority:1" json:"owner_kind"`
	OwnerID    uint      `gorm:"uniqueIndex:idx_membership_pair,priority:2" json:"owner_id"`
	TargetKind Kind      `gorm:"size:32;uniqueIndex:idx_membership_pair,priority:3;index:idx_membership_target,priority:1" json:"target_kind"`
	TargetID   uint      `gorm:"uniqueIndex:idx_membership_pair,priority:4;index:idx_membership_target,priority:2" json:"target_id"`
	IsPrimary  bool      `gorm:"default:false" json:"is_primary"`
	Order      *int      `gorm:"column:position" json:"order"`
	CreatedAt  time.Time `json:"created_at"`
}

func (l *MembershipLink) Target() Ref { return RefOf(l.TargetKind, l.TargetID) }

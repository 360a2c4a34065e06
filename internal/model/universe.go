package model

import "time"

// UniverseStatus describes how much attention a universe gets right now.
type UniverseStatus string

const (
	UniverseNotStarted     UniverseStatus = "not_started"
	UniverseNextSmallSteps UniverseStatus = "next_small_steps"
	UniverseInFocus        UniverseStatus = "in_focus"
	UniverseInOrbit        UniverseStatus = "in_orbit"
	UniverseDormant        UniverseStatus = "dormant"
	UniverseDone           UniverseStatus = "done"
)

var UniverseStatuses = []UniverseStatus{
	UniverseNotStarted, UniverseNextSmallSteps, UniverseInFocus,
	UniverseInOrbit, UniverseDormant, UniverseDone,
}

func (s UniverseStatus) Valid() bool {
	for _, v := range UniverseStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// VisibleToday reports whether tasks of a universe with this status show on the today dashboard.
func (s UniverseStatus) VisibleToday() bool {
	return s == UniverseInFocus || s == UniverseNextSmallSteps || s == UniverseInOrbit
}

// Universe is a project or area node; universes form a forest through ParentID.
type Universe struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `json:"name"`
	Status    UniverseStatus `gorm:"default:not_started" json:"status"`
	ParentID  *uint          `gorm:"index" json:"parent_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (u *Universe) Ref() Ref { return RefOf(KindUniverse, u.ID) }

package model

import "time"

// LogEntry is one line of the time journal. LoggableKind and LoggableID are
// either both set (entity entry) or both nil (standalone entry).
type LogEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LoggableKind *Kind     `gorm:"size:32;index:idx_log_loggable,priority:1" json:"loggable_type"`
	LoggableID   *uint     `gorm:"index:idx_log_loggable,priority:2" json:"loggable_id"`
	Minutes      *int      `json:"minutes"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Loggable returns the referenced entity, or nil for standalone entries.
func (e *LogEntry) Loggable() *Ref {
	if e.LoggableKind == nil || e.LoggableID == nil {
		return nil
	}
	ref := RefOf(*e.LoggableKind, *e.LoggableID)
	return &ref
}

// SetLoggable sets or clears both loggable fields together.
func (e *LogEntry) SetLoggable(ref *Ref) {
	if ref == nil {
		e.LoggableKind, e.LoggableID = nil, nil
		return
	}
	kind, id := ref.Kind, ref.ID
	e.LoggableKind, e.LoggableID = &kind, &id
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"universe-planner/internal/model"
)

// LogEntryRepository stores the time journal.
type LogEntryRepository struct {
	entityRepo[model.LogEntry]
}

func NewLogEntryRepository(db *gorm.DB) *LogEntryRepository {
	return &LogEntryRepository{entityRepo[model.LogEntry]{db: db, kind: "log_entry"}}
}

// LogFilter narrows journal listings. A zero Limit means no limit.
type LogFilter struct {
	Loggable *model.Ref
	Limit    int
}

func (r *LogEntryRepository) Create(ctx context.Context, entry *model.LogEntry) error {
	entry.CreatedAt = entry.CreatedAt.UTC()
	return r.create(ctx, entry)
}

func (r *LogEntryRepository) Save(ctx context.Context, entry *model.LogEntry) error {
	entry.CreatedAt = entry.CreatedAt.UTC()
	return r.save(ctx, entry)
}

// List returns entries newest first.
func (r *LogEntryRepository) List(ctx context.Context, filter LogFilter) ([]model.LogEntry, error) {
	q := r.db.WithContext(ctx)
	if filter.Loggable != nil {
		q = q.Where("loggable_kind = ? AND loggable_id = ?", filter.Loggable.Kind, filter.Loggable.ID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var entries []model.LogEntry
	if err := q.Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	return entries, nil
}

// Latest returns the newest entry for a loggable, or nil.
func (r *LogEntryRepository) Latest(ctx context.Context, ref model.Ref) (*model.LogEntry, error) {
	entries, err := r.List(ctx, LogFilter{Loggable: &ref, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// DetachLoggable turns the entries of a deleted entity into standalone ones.
func (r *LogEntryRepository) DetachLoggable(ctx context.Context, ref model.Ref) error {
	if err := r.db.WithContext(ctx).Model(&model.LogEntry{}).
		Where("loggable_kind = ? AND loggable_id = ?", ref.Kind, ref.ID).
		UpdateColumns(map[string]interface{}{"loggable_kind": nil, "loggable_id": nil}).Error; err != nil {
		return fmt.Errorf("detach log entries of %s: %w", ref, err)
	}
	return nil
}

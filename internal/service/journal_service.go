package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"universe-planner/internal/model"
	"universe-planner/internal/repository"
	"universe-planner/internal/week"
)

// LogInput is a journal entry as submitted by a client. LoggableKind and
// LoggableID must be given together or not at all.
type LogInput struct {
	LoggableKind *string `json:"loggable_type"`
	LoggableID   *uint   `json:"loggable_id"`
	Minutes      *int    `json:"minutes"`
	Notes        *string `json:"notes"`
}

// JournalService manages the time journal.
type JournalService struct {
	store *repository.Store
	clock Clock
}

func NewJournalService(store *repository.Store, clock Clock) *JournalService {
	return &JournalService{store: store, clock: clock}
}

func (s *JournalService) List(ctx context.Context, filter repository.LogFilter) ([]model.LogEntry, error) {
	return s.store.LogEntries.List(ctx, filter)
}

func (s *JournalService) Get(ctx context.Context, id uint) (*model.LogEntry, error) {
	return s.store.LogEntries.FindByID(ctx, id)
}

// Create inserts a standalone or entity-linked entry.
func (s *JournalService) Create(ctx context.Context, input LogInput) (*model.LogEntry, error) {
	ref, err := parseLoggable(input)
	if err != nil {
		return nil, err
	}
	if err := validateMinutes(input.Minutes); err != nil {
		return nil, err
	}
	if ref != nil {
		if err := s.store.Links.Registry().MustExist(ctx, s.store.DB(), *ref); err != nil {
			return nil, err
		}
	}
	return insertLog(ctx, s.store, ref, input.Minutes, deref(input.Notes), s.clock())
}

// Edit rewrites minutes and notes of an entry. The loggable is fixed.
func (s *JournalService) Edit(ctx context.Context, id uint, input LogInput) (*model.LogEntry, error) {
	if err := validateMinutes(input.Minutes); err != nil {
		return nil, err
	}
	entry, err := s.store.LogEntries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entry.Minutes = input.Minutes
	entry.Notes = input.Notes
	if err := s.store.LogEntries.Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *JournalService) Delete(ctx context.Context, id uint) error {
	return s.store.LogEntries.Delete(ctx, id)
}

// insertLog always adds a new entry.
func insertLog(ctx context.Context, st *repository.Store, ref *model.Ref, minutes *int, note string, now time.Time) (*model.LogEntry, error) {
	entry := &model.LogEntry{Minutes: minutes, CreatedAt: now}
	if note != "" {
		entry.Notes = &note
	}
	entry.SetLoggable(ref)
	if err := st.LogEntries.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// appendDailyLog folds an edit note into today's entry for ref, creating the
// entry when ref has none dated today.
func appendDailyLog(ctx context.Context, st *repository.Store, ref model.Ref, note string, now time.Time) (*model.LogEntry, error) {
	latest, err := st.LogEntries.Latest(ctx, ref)
	if err != nil {
		return nil, err
	}
	if latest == nil || !week.At(now).IsToday(latest.CreatedAt) {
		return insertLog(ctx, st, &ref, nil, note, now)
	}
	combined := note
	if latest.Notes != nil && *latest.Notes != "" {
		combined = *latest.Notes + "\n" + note
	}
	latest.Notes = &combined
	if err := st.LogEntries.Save(ctx, latest); err != nil {
		return nil, err
	}
	return latest, nil
}

func parseLoggable(input LogInput) (*model.Ref, error) {
	hasKind := input.LoggableKind != nil && *input.LoggableKind != ""
	hasID := input.LoggableID != nil && *input.LoggableID != 0
	switch {
	case !hasKind && !hasID:
		return nil, nil
	case hasKind != hasID:
		return nil, model.FieldError("loggable", "loggable_type and loggable_id must be set together")
	}
	kind, err := model.ParseKind(*input.LoggableKind)
	if err != nil {
		return nil, model.FieldError("loggable_type", err.Error())
	}
	ref := model.RefOf(kind, *input.LoggableID)
	return &ref, nil
}

func validateMinutes(minutes *int) error {
	if minutes != nil && *minutes < 0 {
		return model.FieldError("minutes", "must not be negative")
	}
	return nil
}

// changeNote summarises which fields an edit touched.
func changeNote(kind model.Kind, changed []string) string {
	if len(changed) == 0 {
		return fmt.Sprintf("Edited %s", strings.ReplaceAll(string(kind), "_", " "))
	}
	return fmt.Sprintf("Edited %s: %s", strings.ReplaceAll(string(kind), "_", " "), strings.Join(changed, ", "))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

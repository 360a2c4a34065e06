package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"universe-planner/internal/model"
	"universe-planner/internal/repository"
)

// RecurringTaskInput represents data required to create or update a template.
// A nil Active means active.
type RecurringTaskInput struct {
	Name                   string              `json:"name"`
	FrequencyUnit          model.FrequencyUnit `json:"frequency_unit"`
	FrequencyInterval      int                 `json:"frequency_interval"`
	DefaultDurationMinutes int                 `json:"default_duration_minutes"`
	Active                 *bool               `json:"active"`
	Universes              Membership          `json:"universes"`
}

// RecurringTaskService manages recurring templates.
type RecurringTaskService struct {
	store  *repository.Store
	engine *RecurrenceEngine
	clock  Clock
	log    zerolog.Logger
}

func NewRecurringTaskService(store *repository.Store, engine *RecurrenceEngine, clock Clock, log zerolog.Logger) *RecurringTaskService {
	return &RecurringTaskService{store: store, engine: engine, clock: clock, log: log.With().Str("component", "recurring_tasks").Logger()}
}

func validateRecurringTask(input RecurringTaskInput) error {
	v := model.NewValidationError()
	if strings.TrimSpace(input.Name) == "" {
		v.Add("name", "is required")
	}
	if !input.FrequencyUnit.Valid() {
		v.Add("frequency_unit", fmt.Sprintf("must be day, week or month, got %q", input.FrequencyUnit))
	}
	if input.FrequencyInterval <= 0 {
		v.Add("frequency_interval", "must be positive")
	}
	if input.DefaultDurationMinutes < 0 {
		v.Add("default_duration_minutes", "must not be negative")
	}
	validateMembership(v, "universes", input.Universes, false)
	return v.OrNil()
}

func (s *RecurringTaskService) CreateRecurringTask(ctx context.Context, input RecurringTaskInput) (*model.RecurringTask, error) {
	if err := validateRecurringTask(input); err != nil {
		return nil, err
	}
	now := s.clock()
	rule := &model.RecurringTask{
		Name:                   strings.TrimSpace(input.Name),
		FrequencyUnit:          input.FrequencyUnit,
		FrequencyInterval:      input.FrequencyInterval,
		DefaultDurationMinutes: input.DefaultDurationMinutes,
		Active:                 input.Active == nil || *input.Active,
		CreatedAt:              now,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.RecurringTasks.Create(ctx, rule); err != nil {
			return err
		}
		if err := tx.Links.SetMembers(ctx, model.KindUniverse, input.Universes.OwnerIDs, rule.Ref(), input.Universes.PrimaryIndex); err != nil {
			return err
		}
		_, err := insertLog(ctx, tx, refPtr(rule.Ref()), nil, "Created recurring task", now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("recurring_task_id", rule.ID).Msg("recurring task created")
	return rule, nil
}

func (s *RecurringTaskService) UpdateRecurringTask(ctx context.Context, id uint, input RecurringTaskInput) (*model.RecurringTask, error) {
	if err := validateRecurringTask(input); err != nil {
		return nil, err
	}
	now := s.clock()
	var rule *model.RecurringTask
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if rule, err = tx.RecurringTasks.FindByID(ctx, id); err != nil {
			return err
		}
		active := input.Active == nil || *input.Active
		var changed []string
		if rule.Name != strings.TrimSpace(input.Name) {
			changed = append(changed, "name")
		}
		if rule.FrequencyUnit != input.FrequencyUnit || rule.FrequencyInterval != input.FrequencyInterval {
			changed = append(changed, "frequency")
		}
		if rule.DefaultDurationMinutes != input.DefaultDurationMinutes {
			changed = append(changed, "duration")
		}
		if rule.Active != active {
			changed = append(changed, "active")
		}
		rule.Name = strings.TrimSpace(input.Name)
		rule.FrequencyUnit = input.FrequencyUnit
		rule.FrequencyInterval = input.FrequencyInterval
		rule.DefaultDurationMinutes = input.DefaultDurationMinutes
		rule.Active = active
		if err := tx.RecurringTasks.Save(ctx, rule); err != nil {
			return err
		}
		if err := tx.Links.SetMembers(ctx, model.KindUniverse, input.Universes.OwnerIDs, rule.Ref(), input.Universes.PrimaryIndex); err != nil {
			return err
		}
		_, err = appendDailyLog(ctx, tx, rule.Ref(), changeNote(model.KindRecurringTask, changed), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *RecurringTaskService) GetRecurringTask(ctx context.Context, id uint) (*model.RecurringTask, error) {
	return s.store.RecurringTasks.FindByID(ctx, id)
}

func (s *RecurringTaskService) ListRecurringTasks(ctx context.Context) ([]model.RecurringTask, error) {
	return s.store.RecurringTasks.List(ctx)
}

// Seed spawns an instance straight from the template. A nil deadline means
// one interval from now.
func (s *RecurringTaskService) Seed(ctx context.Context, id uint, deadlineAt *time.Time) (*model.Task, error) {
	now := s.clock()
	var task *model.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		rule, err := tx.RecurringTasks.FindByID(ctx, id)
		if err != nil {
			return err
		}
		task, err = s.engine.Seed(ctx, tx, rule, deadlineAt, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteRecurringTask removes a template. Its instances are kept as plain
// tasks.
func (s *RecurringTaskService) DeleteRecurringTask(ctx context.Context, id uint) error {
	ref := model.RefOf(model.KindRecurringTask, id)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.RecurringTasks.Delete(ctx, id); err != nil {
			return err
		}
		if err := tx.Tasks.DetachRecurring(ctx, id); err != nil {
			return err
		}
		if err := tx.Links.RemoveTarget(ctx, ref); err != nil {
			return err
		}
		return tx.LogEntries.DetachLoggable(ctx, ref)
	})
	if err != nil {
		return err
	}
	s.log.Info().Uint("recurring_task_id", id).Msg("recurring task deleted")
	return nil
}

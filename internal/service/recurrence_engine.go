package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"universe-planner/internal/metrics"
	"universe-planner/internal/model"
	"universe-planner/internal/recurrence"
	"universe-planner/internal/repository"
)

// Spawn triggers, also used as metric labels.
const (
	triggerComplete = "complete"
	triggerSkip     = "skip"
	triggerSeed     = "seed"
)

// RecurrenceEngine creates follow-on instances of recurring templates.
// Completing or skipping an instance copies only its primary universe link;
// seeding from the template copies every template link.
// It never reads the clock: callers pass the now of their operation.
type RecurrenceEngine struct {
	log zerolog.Logger
}

func NewRecurrenceEngine(log zerolog.Logger) *RecurrenceEngine {
	return &RecurrenceEngine{log: log.With().Str("component", "recurrence").Logger()}
}

// CreateNextInstance spawns the instance following source. With a nil
// deadline the next occurrence is counted from now. Inactive templates spawn
// nothing and return nil.
func (e *RecurrenceEngine) CreateNextInstance(ctx context.Context, st *repository.Store, source *model.Task, explicitDeadline *time.Time, trigger string, now time.Time) (*model.Task, error) {
	if source.RecurringTaskID == nil {
		return nil, nil
	}
	rule, err := st.RecurringTasks.FindByID(ctx, *source.RecurringTaskID)
	if err != nil {
		return nil, err
	}
	if !rule.Active {
		e.log.Info().Uint("recurring_task_id", rule.ID).Msg("template inactive, no next instance")
		return nil, nil
	}

	next, err := e.instance(ctx, st, rule, source.Name, source.Description, explicitDeadline, now)
	if err != nil {
		return nil, err
	}

	copied, err := st.Links.CopyLinks(ctx, model.KindUniverse, source.Ref(), next.Ref(), true)
	if err != nil {
		return nil, err
	}
	if copied == 0 {
		if _, err := st.Links.CopyLinks(ctx, model.KindUniverse, rule.Ref(), next.Ref(), true); err != nil {
			return nil, err
		}
	}

	metrics.InstancesSpawned.WithLabelValues(trigger).Inc()
	e.log.Info().
		Uint("recurring_task_id", rule.ID).
		Uint("source_task_id", source.ID).
		Uint("task_id", next.ID).
		Time("deadline_at", *next.DeadlineAt).
		Str("trigger", trigger).
		Msg("spawned next instance")
	return next, nil
}

// Seed creates an instance straight from a template, copying all of its
// universe links. When the template has no primary link the first available
// universe is promoted: a secondary template link, then the primary universe
// of the newest existing instance.
func (e *RecurrenceEngine) Seed(ctx context.Context, st *repository.Store, rule *model.RecurringTask, explicitDeadline *time.Time, now time.Time) (*model.Task, error) {
	if !rule.Active {
		return nil, fmt.Errorf("recurring task %d is inactive: %w", rule.ID, model.ErrConflict)
	}

	links, err := st.Links.Links(ctx, model.KindUniverse, rule.Ref())
	if err != nil {
		return nil, err
	}
	var fallback *model.MembershipLink
	if len(links) == 0 {
		latest, err := st.Tasks.LatestInstance(ctx, rule.ID)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			if fallback, err = st.Links.PrimaryOwner(ctx, model.KindUniverse, latest.Ref()); err != nil {
				return nil, err
			}
		}
		if fallback == nil {
			return nil, model.FieldError("universe_ids", "recurring task has no universe to seed into")
		}
	}

	task, err := e.instance(ctx, st, rule, rule.Name, "", explicitDeadline, now)
	if err != nil {
		return nil, err
	}

	switch {
	case fallback != nil:
		err = st.Links.SetMembers(ctx, model.KindUniverse, []uint{fallback.OwnerID}, task.Ref(), 0)
	case links[0].IsPrimary:
		_, err = st.Links.CopyLinks(ctx, model.KindUniverse, rule.Ref(), task.Ref(), false)
	default:
		// Links lists primary first, so none of the template links is primary.
		owners := make([]uint, 0, len(links))
		for _, l := range links {
			owners = append(owners, l.OwnerID)
		}
		err = st.Links.SetMembers(ctx, model.KindUniverse, owners, task.Ref(), 0)
	}
	if err != nil {
		return nil, err
	}

	metrics.InstancesSpawned.WithLabelValues(triggerSeed).Inc()
	e.log.Info().Uint("recurring_task_id", rule.ID).Uint("task_id", task.ID).Msg("seeded instance")
	return task, nil
}

func (e *RecurrenceEngine) instance(ctx context.Context, st *repository.Store, rule *model.RecurringTask, name, description string, explicitDeadline *time.Time, now time.Time) (*model.Task, error) {
	deadlineAt := explicitDeadline
	if deadlineAt == nil {
		next, err := recurrence.For(rule, now)
		if err != nil {
			return nil, fmt.Errorf("next deadline of recurring task %d: %w", rule.ID, err)
		}
		deadlineAt = &next
	}
	ruleID := rule.ID
	task := &model.Task{
		Name:            name,
		Description:     description,
		EstimatedTime:   rule.DefaultDurationMinutes,
		DeadlineAt:      deadlineAt,
		Status:          model.TaskOpen,
		RecurringTaskID: &ruleID,
		CreatedAt:       now,
	}
	if err := st.Tasks.Create(ctx, task, now); err != nil {
		return nil, err
	}
	if _, err := insertLog(ctx, st, refPtr(task.Ref()), nil, "Created task", now); err != nil {
		return nil, err
	}
	return task, nil
}

func refPtr(r model.Ref) *model.Ref { return &r }

package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"universe-planner/internal/deadline"
	"universe-planner/internal/lifecycle"
	"universe-planner/internal/metrics"
	"universe-planner/internal/model"
	"universe-planner/internal/recurrence"
	"universe-planner/internal/repository"
	"universe-planner/internal/week"
)

// TaskInput represents data required to create or update a task.
type TaskInput struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	EstimatedTime   int        `json:"estimated_time"`
	DeadlineAt      *time.Time `json:"deadline_at"`
	RecurringTaskID *uint      `json:"recurring_task_id"`
	Universes       Membership `json:"universes"`
}

// CompleteInput is the time spent on a task when it is completed. Minutes
// defaults to the estimate.
type CompleteInput struct {
	Minutes *int    `json:"minutes"`
	Notes   *string `json:"notes"`
}

// TaskDetails is a task with its derived state and memberships.
type TaskDetails struct {
	Task           model.Task             `json:"task"`
	ComputedStatus model.TaskStatus       `json:"computed_status"`
	Bucket         deadline.Bucket        `json:"bucket"`
	Universes      []model.MembershipLink `json:"universes"`
}

// TransitionResult is the outcome of complete and skip. Next is the spawned
// follow-on instance of a recurring task, if any.
type TransitionResult struct {
	Task *model.Task `json:"task"`
	Next *model.Task `json:"next,omitempty"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store  *repository.Store
	engine *RecurrenceEngine
	clock  Clock
	log    zerolog.Logger
}

func NewTaskService(store *repository.Store, engine *RecurrenceEngine, clock Clock, log zerolog.Logger) *TaskService {
	return &TaskService{store: store, engine: engine, clock: clock, log: log.With().Str("component", "tasks").Logger()}
}

func validateTask(input TaskInput) error {
	v := model.NewValidationError()
	if strings.TrimSpace(input.Name) == "" {
		v.Add("name", "is required")
	}
	if input.EstimatedTime < 0 {
		v.Add("estimated_time", "must not be negative")
	}
	validateMembership(v, "universes", input.Universes, true)
	return v.OrNil()
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	if err := validateTask(input); err != nil {
		return nil, err
	}
	now := s.clock()
	task := &model.Task{
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		EstimatedTime:   input.EstimatedTime,
		DeadlineAt:      input.DeadlineAt,
		RecurringTaskID: input.RecurringTaskID,
		Status:          model.TaskOpen,
		CreatedAt:       now,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if task.RecurringTaskID != nil {
			if _, err := tx.RecurringTasks.FindByID(ctx, *task.RecurringTaskID); err != nil {
				return err
			}
		}
		if err := tx.Tasks.Create(ctx, task, now); err != nil {
			return err
		}
		if err := tx.Links.SetMembers(ctx, model.KindUniverse, input.Universes.OwnerIDs, task.Ref(), input.Universes.PrimaryIndex); err != nil {
			return err
		}
		_, err := insertLog(ctx, tx, refPtr(task.Ref()), nil, "Created task", now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("task_id", task.ID).Msg("task created")
	return task, nil
}

// UpdateTask rewrites a task and replaces its universe memberships. The edit
// is journaled into the task's entry of the day.
func (s *TaskService) UpdateTask(ctx context.Context, id uint, input TaskInput) (*model.Task, error) {
	if err := validateTask(input); err != nil {
		return nil, err
	}
	now := s.clock()
	var task *model.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if task, err = tx.Tasks.FindByID(ctx, id); err != nil {
			return err
		}
		if input.RecurringTaskID != nil {
			if _, err := tx.RecurringTasks.FindByID(ctx, *input.RecurringTaskID); err != nil {
				return err
			}
		}
		changed := taskChanges(task, input)
		task.Name = strings.TrimSpace(input.Name)
		task.Description = input.Description
		task.EstimatedTime = input.EstimatedTime
		task.DeadlineAt = input.DeadlineAt
		task.RecurringTaskID = input.RecurringTaskID
		if err := tx.Tasks.Save(ctx, task, now); err != nil {
			return err
		}
		if err := tx.Links.SetMembers(ctx, model.KindUniverse, input.Universes.OwnerIDs, task.Ref(), input.Universes.PrimaryIndex); err != nil {
			return err
		}
		_, err = appendDailyLog(ctx, tx, task.Ref(), changeNote(model.KindTask, changed), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func taskChanges(task *model.Task, input TaskInput) []string {
	var changed []string
	if task.Name != strings.TrimSpace(input.Name) {
		changed = append(changed, "name")
	}
	if task.Description != input.Description {
		changed = append(changed, "description")
	}
	if task.EstimatedTime != input.EstimatedTime {
		changed = append(changed, "estimated time")
	}
	if !sameTime(task.DeadlineAt, input.DeadlineAt) {
		changed = append(changed, "deadline")
	}
	if !sameUint(task.RecurringTaskID, input.RecurringTaskID) {
		changed = append(changed, "recurring task")
	}
	return changed
}

func (s *TaskService) GetTask(ctx context.Context, id uint) (*TaskDetails, error) {
	task, err := s.store.Tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	links, err := s.store.Links.Links(ctx, model.KindUniverse, task.Ref())
	if err != nil {
		return nil, err
	}
	now := s.clock()
	return &TaskDetails{
		Task:           *task,
		ComputedStatus: lifecycle.ComputedStatus(task, now),
		Bucket:         deadline.Classify(task.DeadlineAt, now),
		Universes:      links,
	}, nil
}

// ListTasks returns tasks for plain listings. Snoozed tasks are included.
func (s *TaskService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]TaskDetails, error) {
	tasks, err := s.store.Tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	links, err := s.store.Links.LinksForTargets(ctx, model.KindUniverse, model.KindTask, ids)
	if err != nil {
		return nil, err
	}
	byTask := make(map[uint][]model.MembershipLink)
	for _, l := range links {
		byTask[l.TargetID] = append(byTask[l.TargetID], l)
	}
	b := week.At(s.clock())
	out := make([]TaskDetails, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		out = append(out, TaskDetails{
			Task:           *t,
			ComputedStatus: lifecycle.ComputedStatus(t, b.Now()),
			Bucket:         deadline.ClassifyAt(t.DeadlineAt, b),
			Universes:      byTask[t.ID],
		})
	}
	return out, nil
}

// CompleteTask marks a task done, journals the time spent and, for recurring
// instances, spawns the next one due one interval from now.
func (s *TaskService) CompleteTask(ctx context.Context, id uint, input CompleteInput) (*TransitionResult, error) {
	if err := validateMinutes(input.Minutes); err != nil {
		return nil, err
	}
	now := s.clock()
	result := &TransitionResult{}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := lifecycle.Complete(task, now); err != nil {
			return err
		}
		if err := tx.Tasks.Save(ctx, task, now); err != nil {
			return err
		}
		minutes := input.Minutes
		if minutes == nil {
			estimate := task.EstimatedTime
			minutes = &estimate
		}
		note := "Completed"
		if n := strings.TrimSpace(deref(input.Notes)); n != "" {
			note = n
		}
		if _, err := insertLog(ctx, tx, refPtr(task.Ref()), minutes, note, now); err != nil {
			return err
		}
		result.Task = task
		result.Next, err = s.engine.CreateNextInstance(ctx, tx, task, nil, triggerComplete, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.TaskTransitions.WithLabelValues("complete").Inc()
	s.log.Info().Uint("task_id", id).Bool("spawned", result.Next != nil).Msg("task completed")
	return result, nil
}

// SkipTask marks a task skipped. A recurring instance is followed by one due
// an interval after the skipped deadline, or after now if it had none.
func (s *TaskService) SkipTask(ctx context.Context, id uint) (*TransitionResult, error) {
	now := s.clock()
	result := &TransitionResult{}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := lifecycle.Skip(task, now); err != nil {
			return err
		}
		if err := tx.Tasks.Save(ctx, task, now); err != nil {
			return err
		}
		result.Task = task
		if task.RecurringTaskID == nil {
			return nil
		}
		rule, err := tx.RecurringTasks.FindByID(ctx, *task.RecurringTaskID)
		if err != nil {
			return err
		}
		from := now
		if task.DeadlineAt != nil {
			from = *task.DeadlineAt
		}
		next, err := recurrence.For(rule, from)
		if err != nil {
			return err
		}
		result.Next, err = s.engine.CreateNextInstance(ctx, tx, task, &next, triggerSkip, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.TaskTransitions.WithLabelValues("skip").Inc()
	s.log.Info().Uint("task_id", id).Bool("spawned", result.Next != nil).Msg("task skipped")
	return result, nil
}

// SnoozeTask hides a task from the today dashboard until the given moment.
// A nil moment clears the snooze.
func (s *TaskService) SnoozeTask(ctx context.Context, id uint, until *time.Time) (*model.Task, error) {
	now := s.clock()
	task, err := s.store.Tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Snooze(task, until, now); err != nil {
		return nil, err
	}
	if err := s.store.Tasks.Save(ctx, task, now); err != nil {
		return nil, err
	}
	metrics.TaskTransitions.WithLabelValues("snooze").Inc()
	return task, nil
}

// LogTime adds a journal entry for a task.
func (s *TaskService) LogTime(ctx context.Context, id uint, minutes *int, notes string) (*model.LogEntry, error) {
	if err := validateMinutes(minutes); err != nil {
		return nil, err
	}
	if minutes == nil && strings.TrimSpace(notes) == "" {
		return nil, model.FieldError("minutes", "minutes or notes are required")
	}
	task, err := s.store.Tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return insertLog(ctx, s.store, refPtr(task.Ref()), minutes, strings.TrimSpace(notes), s.clock())
}

// DeleteTask removes a task and its memberships. Its journal entries are
// kept as standalone entries.
func (s *TaskService) DeleteTask(ctx context.Context, id uint) error {
	ref := model.RefOf(model.KindTask, id)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Tasks.Delete(ctx, id); err != nil {
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
	s.log.Info().Uint("task_id", id).Msg("task deleted")
	return nil
}

// Reconcile rewrites drifted task statuses and returns how many changed.
func (s *TaskService) Reconcile(ctx context.Context) (int, error) {
	changed, err := s.store.Tasks.ReconcileAll(ctx, s.clock())
	if err != nil {
		return changed, err
	}
	metrics.TasksReconciled.Add(float64(changed))
	return changed, nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func sameUint(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

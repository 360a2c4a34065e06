package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"universe-planner/internal/dashboard"
	"universe-planner/internal/metrics"
	"universe-planner/internal/model"
	"universe-planner/internal/repository"
)

// TodayService builds the today dashboard.
type TodayService struct {
	store *repository.Store
	clock Clock
	log   zerolog.Logger
}

func NewTodayService(store *repository.Store, clock Clock, log zerolog.Logger) *TodayService {
	return &TodayService{store: store, clock: clock, log: log.With().Str("component", "today").Logger()}
}

// Today reconciles late statuses, then aggregates every incomplete task
// against one captured moment.
func (s *TodayService) Today(ctx context.Context) (*dashboard.Today, error) {
	started := time.Now()
	now := s.clock()

	changed, err := s.store.Tasks.ReconcileAll(ctx, now)
	if err != nil {
		return nil, err
	}
	if changed > 0 {
		metrics.TasksReconciled.Add(float64(changed))
		s.log.Debug().Int("changed", changed).Msg("reconciled task statuses")
	}

	universes, err := s.store.Universes.List(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.Tasks.ListIncomplete(ctx)
	if err != nil {
		return nil, err
	}
	links, err := s.store.Links.LinksForTargets(ctx, model.KindUniverse, model.KindTask, nil)
	if err != nil {
		return nil, err
	}

	today := dashboard.BuildToday(dashboard.Snapshot{Universes: universes, Tasks: tasks, Links: links}, now)
	metrics.TodayBuildDuration.Observe(time.Since(started).Seconds())
	return &today, nil
}

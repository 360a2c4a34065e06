package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"universe-planner/internal/dashboard"
	"universe-planner/internal/model"
	"universe-planner/internal/repository"
)

// UniverseInput represents data required to create or update a universe.
type UniverseInput struct {
	Name     string               `json:"name"`
	Status   model.UniverseStatus `json:"status"`
	ParentID *uint                `json:"parent_id"`
}

// UniverseService manages the universe tree.
type UniverseService struct {
	store *repository.Store
	clock Clock
	log   zerolog.Logger
}

func NewUniverseService(store *repository.Store, clock Clock, log zerolog.Logger) *UniverseService {
	return &UniverseService{store: store, clock: clock, log: log.With().Str("component", "universes").Logger()}
}

func validateUniverse(input *UniverseInput) error {
	v := model.NewValidationError()
	if strings.TrimSpace(input.Name) == "" {
		v.Add("name", "is required")
	}
	if input.Status == "" {
		input.Status = model.UniverseNotStarted
	}
	if !input.Status.Valid() {
		v.Add("status", fmt.Sprintf("unknown status %q", input.Status))
	}
	if input.ParentID != nil && *input.ParentID == 0 {
		input.ParentID = nil
	}
	return v.OrNil()
}

func (s *UniverseService) CreateUniverse(ctx context.Context, input UniverseInput) (*model.Universe, error) {
	if err := validateUniverse(&input); err != nil {
		return nil, err
	}
	now := s.clock()
	u := &model.Universe{
		Name:      strings.TrimSpace(input.Name),
		Status:    input.Status,
		ParentID:  input.ParentID,
		CreatedAt: now,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if u.ParentID != nil {
			if _, err := tx.Universes.FindByID(ctx, *u.ParentID); err != nil {
				return err
			}
		}
		if err := tx.Universes.Create(ctx, u); err != nil {
			return err
		}
		_, err := insertLog(ctx, tx, refPtr(u.Ref()), nil, "Created universe", now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("universe_id", u.ID).Msg("universe created")
	return u, nil
}

// UpdateUniverse rewrites a universe. Reparenting under itself or one of its
// descendants is rejected.
func (s *UniverseService) UpdateUniverse(ctx context.Context, id uint, input UniverseInput) (*model.Universe, error) {
	if err := validateUniverse(&input); err != nil {
		return nil, err
	}
	now := s.clock()
	var u *model.Universe
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if u, err = tx.Universes.FindByID(ctx, id); err != nil {
			return err
		}
		if input.ParentID != nil {
			if err := checkReparent(ctx, tx, id, *input.ParentID); err != nil {
				return err
			}
		}
		var changed []string
		if u.Name != strings.TrimSpace(input.Name) {
			changed = append(changed, "name")
		}
		if u.Status != input.Status {
			changed = append(changed, "status")
		}
		if !sameUint(u.ParentID, input.ParentID) {
			changed = append(changed, "parent")
		}
		u.Name = strings.TrimSpace(input.Name)
		u.Status = input.Status
		u.ParentID = input.ParentID
		if err := tx.Universes.Save(ctx, u); err != nil {
			return err
		}
		_, err = appendDailyLog(ctx, tx, u.Ref(), changeNote(model.KindUniverse, changed), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// checkReparent walks up from the new parent and fails if it reaches id.
// The walk stops on an already existing cycle.
func checkReparent(ctx context.Context, st *repository.Store, id, parentID uint) error {
	if parentID == id {
		return &model.InvariantError{Reason: fmt.Sprintf("universe %d cannot be its own parent", id)}
	}
	seen := map[uint]bool{}
	cur := &parentID
	for cur != nil && !seen[*cur] {
		if *cur == id {
			return &model.InvariantError{Reason: fmt.Sprintf("universe %d is an ancestor of %d", id, parentID)}
		}
		seen[*cur] = true
		next, err := st.Universes.ParentOf(ctx, *cur)
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

func (s *UniverseService) GetUniverse(ctx context.Context, id uint) (*model.Universe, error) {
	return s.store.Universes.FindByID(ctx, id)
}

func (s *UniverseService) ListUniverses(ctx context.Context) ([]model.Universe, error) {
	return s.store.Universes.List(ctx)
}

// Tree returns the universe forest, breadth-first.
func (s *UniverseService) Tree(ctx context.Context) ([]*dashboard.TreeNode, error) {
	universes, err := s.store.Universes.List(ctx)
	if err != nil {
		return nil, err
	}
	return dashboard.BuildTree(universes), nil
}

// Detail builds the page of one universe.
func (s *UniverseService) Detail(ctx context.Context, id uint) (*dashboard.UniverseDetail, error) {
	u, err := s.store.Universes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	universes, err := s.store.Universes.List(ctx)
	if err != nil {
		return nil, err
	}

	taskRefs, err := s.store.Links.TargetsOf(ctx, u.Ref(), model.KindTask)
	if err != nil {
		return nil, err
	}
	taskIDs := targetIDs(taskRefs)
	tasks, err := s.store.Tasks.FindByIDs(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	taskLinks, err := s.store.Links.LinksForTargets(ctx, model.KindUniverse, model.KindTask, taskIDs)
	if err != nil {
		return nil, err
	}

	snap := dashboard.DetailSnapshot{
		Universe:  *u,
		Universes: universes,
		Tasks:     tasks,
		TaskLinks: taskLinks,
	}
	for _, kind := range []model.Kind{model.KindIdea, model.KindIdeaPool, model.KindRecurringTask} {
		links, err := s.store.Links.TargetsOf(ctx, u.Ref(), kind)
		if err != nil {
			return nil, err
		}
		snap.OwnLinks = append(snap.OwnLinks, links...)
		ids := targetIDs(links)
		switch kind {
		case model.KindIdea:
			snap.Ideas, err = s.store.Ideas.FindByIDs(ctx, ids)
		case model.KindIdeaPool:
			snap.IdeaPools, err = s.store.IdeaPools.FindByIDs(ctx, ids)
		case model.KindRecurringTask:
			snap.RecurringTasks, err = s.store.RecurringTasks.FindByIDs(ctx, ids)
		}
		if err != nil {
			return nil, err
		}
	}

	detail := dashboard.BuildUniverseDetail(snap, s.clock())
	return &detail, nil
}

// ReorderTasks sets the order of the universe's links to the given tasks to
// their position in taskIDs.
func (s *UniverseService) ReorderTasks(ctx context.Context, id uint, taskIDs []uint) error {
	if len(taskIDs) == 0 {
		return model.FieldError("task_ids", "is required")
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		u, err := tx.Universes.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return tx.Links.SetOrder(ctx, u.Ref(), model.KindTask, taskIDs)
	})
}

// DeleteUniverse removes a universe and the links it owns. Its children
// become roots; linked items are kept.
func (s *UniverseService) DeleteUniverse(ctx context.Context, id uint) error {
	ref := model.RefOf(model.KindUniverse, id)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Universes.Delete(ctx, id); err != nil {
			return err
		}
		if err := tx.Universes.DetachChildren(ctx, id); err != nil {
			return err
		}
		if err := tx.Links.RemoveOwner(ctx, ref); err != nil {
			return err
		}
		return tx.LogEntries.DetachLoggable(ctx, ref)
	})
	if err != nil {
		return err
	}
	s.log.Info().Uint("universe_id", id).Msg("universe deleted")
	return nil
}

func targetIDs(links []model.MembershipLink) []uint {
	ids := make([]uint, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.TargetID)
	}
	return ids
}

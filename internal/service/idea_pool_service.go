package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"universe-planner/internal/model"
	"universe-planner/internal/repository"
)

// IdeaPoolInput represents data required to create or update an idea pool.
type IdeaPoolInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Universes   Membership `json:"universes"`
}

// IdeaPoolDetails is a pool with its universes and ideas.
type IdeaPoolDetails struct {
	Pool      model.IdeaPool         `json:"idea_pool"`
	Universes []model.MembershipLink `json:"universes"`
	Ideas     []model.Idea           `json:"ideas"`
}

// IdeaPoolService manages idea pools.
type IdeaPoolService struct {
	store *repository.Store
	clock Clock
	log   zerolog.Logger
}

func NewIdeaPoolService(store *repository.Store, clock Clock, log zerolog.Logger) *IdeaPoolService {
	return &IdeaPoolService{store: store, clock: clock, log: log.With().Str("component", "idea_pools").Logger()}
}

func validateIdeaPool(input IdeaPoolInput) error {
	v := model.NewValidationError()
	if strings.TrimSpace(input.Name) == "" {
		v.Add("name", "is required")
	}
	validateMembership(v, "universes", input.Universes, false)
	return v.OrNil()
}

func (s *IdeaPoolService) CreateIdeaPool(ctx context.Context, input IdeaPoolInput) (*model.IdeaPool, error) {
	if err := validateIdeaPool(input); err != nil {
		return nil, err
	}
	now := s.clock()
	pool := &model.IdeaPool{Name: strings.TrimSpace(input.Name), Description: input.Description, CreatedAt: now}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.IdeaPools.Create(ctx, pool); err != nil {
			return err
		}
		if err := tx.Links.SetMembers(ctx, model.KindUniverse, input.Universes.OwnerIDs, pool.Ref(), input.Universes.PrimaryIndex); err != nil {
			return err
		}
		_, err := insertLog(ctx, tx, refPtr(pool.Ref()), nil, "Created idea pool", now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("idea_pool_id", pool.ID).Msg("idea pool created")
	return pool, nil
}

func (s *IdeaPoolService) UpdateIdeaPool(ctx context.Context, id uint, input IdeaPoolInput) (*model.IdeaPool, error) {
	if err := validateIdeaPool(input); err != nil {
		return nil, err
	}
	now := s.clock()
	var pool *model.IdeaPool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if pool, err = tx.IdeaPools.FindByID(ctx, id); err != nil {
			return err
		}
		var changed []string
		if pool.Name != strings.TrimSpace(input.Name) {
			changed = append(changed, "name")
		}
		if pool.Description != input.Description {
			changed = append(changed, "description")
		}
		pool.Name = strings.TrimSpace(input.Name)
		pool.Description = input.Description
		if err := tx.IdeaPools.Save(ctx, pool); err != nil {
			return err
		}
		if err := tx.Links.SetMembers(ctx, model.KindUniverse, input.Universes.OwnerIDs, pool.Ref(), input.Universes.PrimaryIndex); err != nil {
			return err
		}
		_, err = appendDailyLog(ctx, tx, pool.Ref(), changeNote(model.KindIdeaPool, changed), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func (s *IdeaPoolService) GetIdeaPool(ctx context.Context, id uint) (*IdeaPoolDetails, error) {
	pool, err := s.store.IdeaPools.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	universes, err := s.store.Links.Links(ctx, model.KindUniverse, pool.Ref())
	if err != nil {
		return nil, err
	}
	links, err := s.store.Links.TargetsOf(ctx, pool.Ref(), model.KindIdea)
	if err != nil {
		return nil, err
	}
	ideas, err := s.store.Ideas.FindByIDs(ctx, targetIDs(links))
	if err != nil {
		return nil, err
	}
	if ideas == nil {
		ideas = []model.Idea{}
	}
	return &IdeaPoolDetails{Pool: *pool, Universes: universes, Ideas: ideas}, nil
}

func (s *IdeaPoolService) ListIdeaPools(ctx context.Context) ([]model.IdeaPool, error) {
	return s.store.IdeaPools.List(ctx)
}

// DeleteIdeaPool removes a pool, the links it holds to ideas and the links
// universes hold to it. The ideas are kept.
func (s *IdeaPoolService) DeleteIdeaPool(ctx context.Context, id uint) error {
	ref := model.RefOf(model.KindIdeaPool, id)
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.IdeaPools.Delete(ctx, id); err != nil {
			return err
		}
		if err := tx.Links.RemoveOwner(ctx, ref); err != nil {
			return err
		}
		if err := tx.Links.RemoveTarget(ctx, ref); err != nil {
			return err
		}
		return tx.LogEntries.DetachLoggable(ctx, ref)
	})
}

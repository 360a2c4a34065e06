package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"universe-planner/internal/model"
	"universe-planner/internal/repository"
)

// IdeaInput represents data required to create or update an idea. Pools is
// the idea's idea pool membership; only its primary pool is meaningful.
type IdeaInput struct {
	Title     *string           `json:"title"`
	Body      string            `json:"body"`
	Notes     string            `json:"notes"`
	Status    *model.IdeaStatus `json:"status"`
	Universes Membership        `json:"universes"`
	Pools     Membership        `json:"idea_pools"`
}

// IdeaDetails is an idea with its memberships.
type IdeaDetails struct {
	Idea      model.Idea             `json:"idea"`
	Universes []model.MembershipLink `json:"universes"`
	Pools     []model.MembershipLink `json:"idea_pools"`
}

// IdeaService manages ideas.
type IdeaService struct {
	store *repository.Store
	clock Clock
	log   zerolog.Logger
}

func NewIdeaService(store *repository.Store, clock Clock, log zerolog.Logger) *IdeaService {
	return &IdeaService{store: store, clock: clock, log: log.With().Str("component", "ideas").Logger()}
}

func validateIdea(input IdeaInput) error {
	v := model.NewValidationError()
	if strings.TrimSpace(input.Body) == "" {
		v.Add("body", "is required")
	}
	if input.Status != nil && !input.Status.Valid() {
		v.Add("status", fmt.Sprintf("unknown status %q", *input.Status))
	}
	validateMembership(v, "universes", input.Universes, false)
	validateMembership(v, "idea_pools", input.Pools, false)
	return v.OrNil()
}

func (s *IdeaService) CreateIdea(ctx context.Context, input IdeaInput) (*model.Idea, error) {
	if err := validateIdea(input); err != nil {
		return nil, err
	}
	now := s.clock()
	idea := &model.Idea{
		Title:     blankToNil(input.Title),
		Body:      input.Body,
		Notes:     input.Notes,
		Status:    input.Status,
		CreatedAt: now,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Ideas.Create(ctx, idea); err != nil {
			return err
		}
		if err := s.setIdeaMembers(ctx, tx, idea, input); err != nil {
			return err
		}
		_, err := insertLog(ctx, tx, refPtr(idea.Ref()), nil, "Created idea", now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("idea_id", idea.ID).Msg("idea created")
	return idea, nil
}

func (s *IdeaService) UpdateIdea(ctx context.Context, id uint, input IdeaInput) (*model.Idea, error) {
	if err := validateIdea(input); err != nil {
		return nil, err
	}
	now := s.clock()
	var idea *model.Idea
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if idea, err = tx.Ideas.FindByID(ctx, id); err != nil {
			return err
		}
		title := blankToNil(input.Title)
		var changed []string
		if deref(idea.Title) != deref(title) {
			changed = append(changed, "title")
		}
		if idea.Body != input.Body {
			changed = append(changed, "body")
		}
		if idea.Notes != input.Notes {
			changed = append(changed, "notes")
		}
		if !sameStatus(idea.Status, input.Status) {
			changed = append(changed, "status")
		}
		idea.Title = title
		idea.Body = input.Body
		idea.Notes = input.Notes
		idea.Status = input.Status
		if err := tx.Ideas.Save(ctx, idea); err != nil {
			return err
		}
		if err := s.setIdeaMembers(ctx, tx, idea, input); err != nil {
			return err
		}
		_, err = appendDailyLog(ctx, tx, idea.Ref(), changeNote(model.KindIdea, changed), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return idea, nil
}

func (s *IdeaService) setIdeaMembers(ctx context.Context, tx *repository.Store, idea *model.Idea, input IdeaInput) error {
	if err := tx.Links.SetMembers(ctx, model.KindUniverse, input.Universes.OwnerIDs, idea.Ref(), input.Universes.PrimaryIndex); err != nil {
		return err
	}
	return tx.Links.SetMembers(ctx, model.KindIdeaPool, input.Pools.OwnerIDs, idea.Ref(), input.Pools.PrimaryIndex)
}

func (s *IdeaService) GetIdea(ctx context.Context, id uint) (*IdeaDetails, error) {
	idea, err := s.store.Ideas.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	universes, err := s.store.Links.Links(ctx, model.KindUniverse, idea.Ref())
	if err != nil {
		return nil, err
	}
	pools, err := s.store.Links.Links(ctx, model.KindIdeaPool, idea.Ref())
	if err != nil {
		return nil, err
	}
	return &IdeaDetails{Idea: *idea, Universes: universes, Pools: pools}, nil
}

func (s *IdeaService) ListIdeas(ctx context.Context) ([]model.Idea, error) {
	return s.store.Ideas.List(ctx)
}

func (s *IdeaService) DeleteIdea(ctx context.Context, id uint) error {
	ref := model.RefOf(model.KindIdea, id)
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Ideas.Delete(ctx, id); err != nil {
			return err
		}
		if err := tx.Links.RemoveTarget(ctx, ref); err != nil {
			return err
		}
		return tx.LogEntries.DetachLoggable(ctx, ref)
	})
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func sameStatus(a, b *model.IdeaStatus) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

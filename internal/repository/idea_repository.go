package repository

import (
	"context"

	"gorm.io/gorm"

	"universe-planner/internal/model"
)

// IdeaRepository manages ideas.
type IdeaRepository struct {
	entityRepo[model.Idea]
}

func NewIdeaRepository(db *gorm.DB) *IdeaRepository {
	return &IdeaRepository{entityRepo[model.Idea]{db: db, kind: model.KindIdea}}
}

func (r *IdeaRepository) Create(ctx context.Context, idea *model.Idea) error {
	return r.create(ctx, idea)
}

func (r *IdeaRepository) Save(ctx context.Context, idea *model.Idea) error {
	return r.save(ctx, idea)
}

func (r *IdeaRepository) List(ctx context.Context) ([]model.Idea, error) {
	return r.list(ctx, "created_at DESC, id DESC")
}

// IdeaPoolRepository manages idea pools.
type IdeaPoolRepository struct {
	entityRepo[model.IdeaPool]
}

func NewIdeaPoolRepository(db *gorm.DB) *IdeaPoolRepository {
	return &IdeaPoolRepository{entityRepo[model.IdeaPool]{db: db, kind: model.KindIdeaPool}}
}

func (r *IdeaPoolRepository) Create(ctx context.Context, pool *model.IdeaPool) error {
	return r.create(ctx, pool)
}

func (r *IdeaPoolRepository) Save(ctx context.Context, pool *model.IdeaPool) error {
	return r.save(ctx, pool)
}

func (r *IdeaPoolRepository) List(ctx context.Context) ([]model.IdeaPool, error) {
	return r.list(ctx, "name ASC, id ASC")
}

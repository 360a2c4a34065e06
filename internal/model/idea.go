package model

import "time"

type IdeaStatus string

const (
	IdeaSeed    IdeaStatus = "seed"
	IdeaGrowing IdeaStatus = "growing"
	IdeaDormant IdeaStatus = "dormant"
	IdeaActive  IdeaStatus = "active"
)

func (s IdeaStatus) Valid() bool {
	switch s {
	case IdeaSeed, IdeaGrowing, IdeaDormant, IdeaActive:
		return true
	}
	return false
}

// Idea is a free-form note that can live in universes and idea pools.
type Idea struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Title     *string     `json:"title"`
	Body      string      `json:"body"`
	Notes     string      `json:"notes"`
	Status    *IdeaStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (i *Idea) Ref() Ref { return RefOf(KindIdea, i.ID) }

// IdeaPool collects related ideas.
type IdeaPool struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *IdeaPool) Ref() Ref { return RefOf(KindIdeaPool, p.ID) }

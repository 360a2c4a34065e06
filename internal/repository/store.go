package repository

import (
	"context"

	"gorm.io/gorm"

	"universe-planner/internal/membership"
)

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db             *gorm.DB
	Universes      *UniverseRepository
	Tasks          *TaskRepository
	RecurringTasks *RecurringTaskRepository
	Ideas          *IdeaRepository
	IdeaPools      *IdeaPoolRepository
	LogEntries     *LogEntryRepository
	Links          *membership.Graph
}

func NewStore(db *gorm.DB) *Store {
	return newStore(db, membership.NewGraph(db, membership.DefaultRegistry()))
}

func newStore(db *gorm.DB, links *membership.Graph) *Store {
	return &Store{
		db:             db,
		Universes:      NewUniverseRepository(db),
		Tasks:          NewTaskRepository(db),
		RecurringTasks: NewRecurringTaskRepository(db),
		Ideas:          NewIdeaRepository(db),
		IdeaPools:      NewIdeaPoolRepository(db),
		LogEntries:     NewLogEntryRepository(db),
		Links:          links,
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn against a store bound to one transaction. Nested calls
// use savepoints.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStore(tx, s.Links.WithTx(tx)))
	})
}

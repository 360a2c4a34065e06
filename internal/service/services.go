package service

import (
	"time"

	"github.com/rs/zerolog"

	"universe-planner/internal/model"
	"universe-planner/internal/repository"
)

// Clock returns the current moment. Services read it once per operation.
type Clock func() time.Time

// SystemClock reads wall time in loc.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time { return time.Now().In(loc) }
}

// Services bundles every service over one store.
type Services struct {
	Tasks          *TaskService
	Universes      *UniverseService
	RecurringTasks *RecurringTaskService
	Ideas          *IdeaService
	IdeaPools      *IdeaPoolService
	Journal        *JournalService
	Today          *TodayService
}

func New(store *repository.Store, clock Clock, log zerolog.Logger) *Services {
	engine := NewRecurrenceEngine(log)
	return &Services{
		Tasks:          NewTaskService(store, engine, clock, log),
		Universes:      NewUniverseService(store, clock, log),
		RecurringTasks: NewRecurringTaskService(store, engine, clock, log),
		Ideas:          NewIdeaService(store, clock, log),
		IdeaPools:      NewIdeaPoolService(store, clock, log),
		Journal:        NewJournalService(store, clock),
		Today:          NewTodayService(store, clock, log),
	}
}

// Membership is the owner selection submitted with an entity form.
type Membership struct {
	OwnerIDs     []uint `json:"ids"`
	PrimaryIndex int    `json:"primary_index"`
}

func validateMembership(v *model.ValidationError, field string, m Membership, required bool) {
	if required && len(m.OwnerIDs) == 0 {
		v.Add(field, "select at least one")
	}
	for _, id := range m.OwnerIDs {
		if id == 0 {
			v.Add(field, "ids must be positive")
			return
		}
	}
}

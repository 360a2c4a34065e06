package model

import "fmt"

// Kind tags the entity a polymorphic reference points at.
type Kind string

const (
	KindUniverse      Kind = "universe"
	KindTask          Kind = "task"
	KindIdea          Kind = "idea"
	KindIdeaPool      Kind = "idea_pool"
	KindRecurringTask Kind = "recurring_task"
)

// Kinds lists every entity kind in a stable order.
var Kinds = []Kind{KindUniverse, KindTask, KindIdea, KindIdeaPool, KindRecurringTask}

// ParseKind validates a raw kind string.
func ParseKind(raw string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", raw)
}

// Ref names a single entity of any kind.
type Ref struct {
	Kind Kind `json:"kind"`
	ID   uint `json:"id"`
}

func RefOf(kind Kind, id uint) Ref { return Ref{Kind: kind, ID: id} }

func (r Ref) String() string { return fmt.Sprintf("%s#%d", r.Kind, r.ID) }

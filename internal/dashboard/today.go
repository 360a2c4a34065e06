package dashboard

import (
	"sort"
	"time"

	"universe-planner/internal/model"
	"universe-planner/internal/week"
)

// Snapshot is the data the today dashboard is built from. Links holds the
// universe-to-task membership links.
type Snapshot struct {
	Universes []model.Universe
	Tasks     []model.Task
	Links     []model.MembershipLink
}

// UniverseGroup is one visible universe on the today dashboard.
type UniverseGroup struct {
	Universe  UniverseRef   `json:"universe"`
	Buckets   []BucketGroup `json:"buckets"`
	Secondary []TaskView    `json:"secondary"`
}

// Today is the today dashboard view model.
type Today struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	Universes      []UniverseGroup `json:"universes"`
	OtherDeadlines []TaskView      `json:"other_deadlines"`
	Unassigned     []BucketGroup   `json:"unassigned"`
}

var visibleRank = map[model.UniverseStatus]int{
	model.UniverseInFocus:        0,
	model.UniverseNextSmallSteps: 1,
	model.UniverseInOrbit:        2,
}

// BuildToday groups every open, non-snoozed task under its primary universe.
// Tasks whose primary universe is hidden today only surface in
// OtherDeadlines, and only when they have a deadline.
func BuildToday(s Snapshot, now time.Time) Today {
	b := week.At(now)
	universes := indexUniverses(s.Universes)
	tasks := indexTasks(s.Tasks)
	links := indexLinks(s.Links)

	var visible []*model.Universe
	for i := range s.Universes {
		if s.Universes[i].Status.VisibleToday() {
			visible = append(visible, &s.Universes[i])
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		ri, rj := visibleRank[visible[i].Status], visibleRank[visible[j].Status]
		if ri != rj {
			return ri < rj
		}
		if visible[i].Name != visible[j].Name {
			return visible[i].Name < visible[j].Name
		}
		return visible[i].ID < visible[j].ID
	})

	perUniverse := make(map[uint][]TaskView)
	var other, unassigned []TaskView
	for i := range s.Tasks {
		t := &s.Tasks[i]
		if t.Terminal() || t.Snoozed(now) {
			continue
		}
		primary := links.primary[t.ID]
		var owner *model.Universe
		if primary != nil {
			owner = universes[primary.OwnerID]
		}
		switch {
		case owner == nil:
			unassigned = append(unassigned, newTaskView(t, primary, b))
		case owner.Status.VisibleToday():
			perUniverse[owner.ID] = append(perUniverse[owner.ID], newTaskView(t, primary, b))
		case t.DeadlineAt != nil:
			v := newTaskView(t, primary, b)
			v.Universe = refOf(owner)
			other = append(other, v)
		}
	}

	out := Today{
		GeneratedAt:    now,
		Universes:      make([]UniverseGroup, 0, len(visible)),
		OtherDeadlines: other,
		Unassigned:     groupByBucket(unassigned),
	}
	for _, u := range visible {
		out.Universes = append(out.Universes, UniverseGroup{
			Universe:  *refOf(u),
			Buckets:   groupByBucket(perUniverse[u.ID]),
			Secondary: secondaryViews(u.ID, links, tasks, universes, b),
		})
	}
	sort.SliceStable(out.OtherDeadlines, func(i, j int) bool {
		a, c := out.OtherDeadlines[i], out.OtherDeadlines[j]
		if !a.DeadlineAt.Equal(*c.DeadlineAt) {
			return a.DeadlineAt.Before(*c.DeadlineAt)
		}
		return a.ID < c.ID
	})
	if out.OtherDeadlines == nil {
		out.OtherDeadlines = []TaskView{}
	}
	return out
}

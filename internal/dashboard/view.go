// Package dashboard builds the today dashboard and universe views from a
// snapshot of the planner. Builders are pure: every time comparison uses the
// single now passed in.
package dashboard

import (
	"sort"
	"time"

	"universe-planner/internal/deadline"
	"universe-planner/internal/lifecycle"
	"universe-planner/internal/model"
	"universe-planner/internal/week"
)

// UniverseRef is the short form of a universe embedded in other views.
type UniverseRef struct {
	ID     uint                 `json:"id"`
	Name   string               `json:"name"`
	Status model.UniverseStatus `json:"status"`
}

func refOf(u *model.Universe) *UniverseRef {
	if u == nil {
		return nil
	}
	return &UniverseRef{ID: u.ID, Name: u.Name, Status: u.Status}
}

// TaskView is a task as presented on the dashboard.
type TaskView struct {
	ID              uint             `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	EstimatedTime   int              `json:"estimated_time"`
	DeadlineAt      *time.Time       `json:"deadline_at"`
	SnoozeUntil     *time.Time       `json:"snooze_until,omitempty"`
	Snoozed         bool             `json:"snoozed,omitempty"`
	Status          model.TaskStatus `json:"status"`
	Bucket          deadline.Bucket  `json:"bucket"`
	Order           *int             `json:"order"`
	RecurringTaskID *uint            `json:"recurring_task_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	// Universe is the primary universe, set where the task is shown outside it.
	Universe *UniverseRef `json:"universe,omitempty"`
}

// BucketGroup holds the tasks of one deadline bucket.
type BucketGroup struct {
	Bucket deadline.Bucket `json:"bucket"`
	Tasks  []TaskView      `json:"tasks"`
}

func newTaskView(t *model.Task, link *model.MembershipLink, b week.Boundary) TaskView {
	v := TaskView{
		ID:              t.ID,
		Name:            t.Name,
		Description:     t.Description,
		EstimatedTime:   t.EstimatedTime,
		DeadlineAt:      t.DeadlineAt,
		SnoozeUntil:     t.SnoozeUntil,
		Snoozed:         t.Snoozed(b.Now()),
		Status:          lifecycle.ComputedStatus(t, b.Now()),
		Bucket:          deadline.ClassifyAt(t.DeadlineAt, b),
		RecurringTaskID: t.RecurringTaskID,
		CreatedAt:       t.CreatedAt,
	}
	if link != nil {
		v.Order = link.Order
	}
	return v
}

// sortTasks orders by explicit order ascending with unordered last, then
// newest first.
func sortTasks(tasks []TaskView) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
			return *a.Order < *b.Order
		case a.Order != nil && b.Order == nil:
			return true
		case a.Order == nil && b.Order != nil:
			return false
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.After(b.CreatedAt)
		default:
			return a.ID > b.ID
		}
	})
}

// groupByBucket returns the non-empty buckets in display order, each sorted.
func groupByBucket(tasks []TaskView) []BucketGroup {
	byBucket := make(map[deadline.Bucket][]TaskView)
	for _, t := range tasks {
		byBucket[t.Bucket] = append(byBucket[t.Bucket], t)
	}
	groups := make([]BucketGroup, 0, len(byBucket))
	for _, b := range deadline.Buckets {
		if len(byBucket[b]) == 0 {
			continue
		}
		sortTasks(byBucket[b])
		groups = append(groups, BucketGroup{Bucket: b, Tasks: byBucket[b]})
	}
	return groups
}

// linkIndex splits universe-to-task links into primary and secondary sets.
type linkIndex struct {
	primary   map[uint]*model.MembershipLink   // task id -> primary link
	secondary map[uint][]*model.MembershipLink // universe id -> non-primary links
}

func indexLinks(links []model.MembershipLink) linkIndex {
	idx := linkIndex{
		primary:   make(map[uint]*model.MembershipLink),
		secondary: make(map[uint][]*model.MembershipLink),
	}
	for i := range links {
		l := &links[i]
		if l.OwnerKind != model.KindUniverse || l.TargetKind != model.KindTask {
			continue
		}
		if l.IsPrimary {
			if _, seen := idx.primary[l.TargetID]; !seen {
				idx.primary[l.TargetID] = l
			}
			continue
		}
		idx.secondary[l.OwnerID] = append(idx.secondary[l.OwnerID], l)
	}
	return idx
}

func indexUniverses(universes []model.Universe) map[uint]*model.Universe {
	out := make(map[uint]*model.Universe, len(universes))
	for i := range universes {
		out[universes[i].ID] = &universes[i]
	}
	return out
}

func indexTasks(tasks []model.Task) map[uint]*model.Task {
	out := make(map[uint]*model.Task, len(tasks))
	for i := range tasks {
		out[tasks[i].ID] = &tasks[i]
	}
	return out
}

// secondaryViews lists the tasks cross-referenced into a universe, annotated
// with their primary universe. Terminal and snoozed tasks are left out.
func secondaryViews(universeID uint, idx linkIndex, tasks map[uint]*model.Task, universes map[uint]*model.Universe, b week.Boundary) []TaskView {
	var out []TaskView
	for _, l := range idx.secondary[universeID] {
		t, ok := tasks[l.TargetID]
		if !ok || t.Terminal() || t.Snoozed(b.Now()) {
			continue
		}
		v := newTaskView(t, l, b)
		if p := idx.primary[t.ID]; p != nil {
			v.Universe = refOf(universes[p.OwnerID])
		}
		out = append(out, v)
	}
	sortTasks(out)
	return out
}

package dashboard

import (
	"sort"
	"time"

	"universe-planner/internal/model"
	"universe-planner/internal/week"
)

// DetailSnapshot is the data a single universe page is built from.
type DetailSnapshot struct {
	Universe  model.Universe
	Universes []model.Universe
	// Tasks linked to the universe and every universe link of those tasks.
	Tasks     []model.Task
	TaskLinks []model.MembershipLink
	// OwnLinks are the links held by the universe to ideas, pools and templates.
	OwnLinks       []model.MembershipLink
	Ideas          []model.Idea
	IdeaPools      []model.IdeaPool
	RecurringTasks []model.RecurringTask
}

// ItemView is a non-task member of a universe.
type ItemView struct {
	Kind    model.Kind `json:"kind"`
	ID      uint       `json:"id"`
	Title   string     `json:"title"`
	Primary bool       `json:"primary"`
	Order   *int       `json:"order"`
}

// UniverseDetail is the view model of one universe page.
type UniverseDetail struct {
	Universe       UniverseRef   `json:"universe"`
	Ancestors      []UniverseRef `json:"ancestors"`
	Children       []UniverseRef `json:"children"`
	Buckets        []BucketGroup `json:"buckets"`
	Secondary      []TaskView    `json:"secondary"`
	Ideas          []ItemView    `json:"ideas"`
	IdeaPools      []ItemView    `json:"idea_pools"`
	RecurringTasks []ItemView    `json:"recurring_tasks"`
}

// BuildUniverseDetail lists the open tasks whose primary universe is this
// one, bucketed by deadline. Unlike the today dashboard, snoozed tasks stay
// listed and are flagged.
func BuildUniverseDetail(s DetailSnapshot, now time.Time) UniverseDetail {
	b := week.At(now)
	universes := indexUniverses(s.Universes)
	universes[s.Universe.ID] = &s.Universe
	tasks := indexTasks(s.Tasks)
	links := indexLinks(s.TaskLinks)

	out := UniverseDetail{
		Universe:       *refOf(&s.Universe),
		Ancestors:      []UniverseRef{},
		Children:       []UniverseRef{},
		Ideas:          []ItemView{},
		IdeaPools:      []ItemView{},
		RecurringTasks: []ItemView{},
	}
	for _, a := range Ancestors(&s.Universe, universes) {
		out.Ancestors = append(out.Ancestors, *refOf(a))
	}
	var children []*model.Universe
	for i := range s.Universes {
		u := &s.Universes[i]
		if u.ParentID != nil && *u.ParentID == s.Universe.ID && u.ID != s.Universe.ID {
			children = append(children, u)
		}
	}
	sortUniverses(children)
	for _, c := range children {
		out.Children = append(out.Children, *refOf(c))
	}

	var own []TaskView
	for i := range s.Tasks {
		t := &s.Tasks[i]
		primary := links.primary[t.ID]
		if t.Terminal() || primary == nil || primary.OwnerID != s.Universe.ID {
			continue
		}
		own = append(own, newTaskView(t, primary, b))
	}
	out.Buckets = groupByBucket(own)
	out.Secondary = secondaryViews(s.Universe.ID, links, tasks, universes, b)
	if out.Secondary == nil {
		out.Secondary = []TaskView{}
	}

	titles := make(map[model.Ref]string)
	for i := range s.Ideas {
		titles[s.Ideas[i].Ref()] = ideaTitle(&s.Ideas[i])
	}
	for i := range s.IdeaPools {
		titles[s.IdeaPools[i].Ref()] = s.IdeaPools[i].Name
	}
	for i := range s.RecurringTasks {
		titles[s.RecurringTasks[i].Ref()] = s.RecurringTasks[i].Name
	}
	for _, l := range s.OwnLinks {
		if l.OwnerKind != model.KindUniverse || l.OwnerID != s.Universe.ID {
			continue
		}
		title, ok := titles[l.Target()]
		if !ok {
			continue
		}
		item := ItemView{Kind: l.TargetKind, ID: l.TargetID, Title: title, Primary: l.IsPrimary, Order: l.Order}
		switch l.TargetKind {
		case model.KindIdea:
			out.Ideas = append(out.Ideas, item)
		case model.KindIdeaPool:
			out.IdeaPools = append(out.IdeaPools, item)
		case model.KindRecurringTask:
			out.RecurringTasks = append(out.RecurringTasks, item)
		}
	}
	for _, items := range [][]ItemView{out.Ideas, out.IdeaPools, out.RecurringTasks} {
		sortItems(items)
	}
	return out
}

// ideaTitle falls back to the first line of the body for untitled ideas.
func ideaTitle(i *model.Idea) string {
	if i.Title != nil && *i.Title != "" {
		return *i.Title
	}
	body := i.Body
	for n, r := range body {
		if r == '\n' {
			body = body[:n]
			break
		}
	}
	const max = 60
	if runes := []rune(body); len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return body
}

func sortItems(items []ItemView) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.Primary != b.Primary:
			return a.Primary
		case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
			return *a.Order < *b.Order
		case (a.Order == nil) != (b.Order == nil):
			return a.Order != nil
		default:
			return a.ID < b.ID
		}
	})
}

package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"universe-planner/internal/deadline"
	"universe-planner/internal/model"
)

// Wednesday 2024-01-10 09:00 UTC.
var now = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func universe(id uint, name string, status model.UniverseStatus) model.Universe {
	return model.Universe{ID: id, Name: name, Status: status}
}

func task(id uint, name string, deadlineAt *time.Time, created time.Time) model.Task {
	return model.Task{ID: id, Name: name, DeadlineAt: deadlineAt, Status: model.TaskOpen, CreatedAt: created}
}

func link(owner, target uint, primary bool, order *int) model.MembershipLink {
	return model.MembershipLink{
		OwnerKind: model.KindUniverse, OwnerID: owner,
		TargetKind: model.KindTask, TargetID: target,
		IsPrimary: primary, Order: order,
	}
}

func bucketNames(groups []BucketGroup) []deadline.Bucket {
	var out []deadline.Bucket
	for _, g := range groups {
		out = append(out, g.Bucket)
	}
	return out
}

func taskIDs(views []TaskView) []uint {
	var out []uint
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestBuildTodayBucketsUnderPrimaryUniverse(t *testing.T) {
	nextMonday := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Universes: []model.Universe{universe(1, "Work", model.UniverseInFocus)},
		Tasks: []model.Task{
			task(1, "late", ptr(now.AddDate(0, 0, -1)), now),
			task(2, "due tonight", ptr(time.Date(2024, time.January, 10, 23, 59, 0, 0, time.UTC)), now),
			task(3, "next monday", &nextMonday, now),
			task(4, "someday", nil, now),
		},
		Links: []model.MembershipLink{
			link(1, 1, true, nil), link(1, 2, true, nil), link(1, 3, true, nil), link(1, 4, true, nil),
		},
	}

	today := BuildToday(snap, now)
	require.Len(t, today.Universes, 1)
	group := today.Universes[0]
	assert.Equal(t, "Work", group.Universe.Name)
	assert.Equal(t, []deadline.Bucket{deadline.Overdue, deadline.Today, deadline.NextWeek, deadline.NoDeadline}, bucketNames(group.Buckets))
	assert.Equal(t, model.TaskLate, group.Buckets[0].Tasks[0].Status)
	assert.Equal(t, model.TaskOpen, group.Buckets[1].Tasks[0].Status)
	assert.Equal(t, now, today.GeneratedAt)
}

func TestBuildTodayHidesSnoozedAndTerminal(t *testing.T) {
	done := task(2, "done", nil, now)
	done.CompletedAt = ptr(now)
	skipped := task(3, "skipped", nil, now)
	skipped.SkippedAt = ptr(now)
	snoozed := task(4, "snoozed", nil, now)
	snoozed.SnoozeUntil = ptr(now.Add(time.Hour))
	wokeUp := task(5, "woke up", nil, now)
	wokeUp.SnoozeUntil = ptr(now.Add(-time.Hour))

	snap := Snapshot{
		Universes: []model.Universe{universe(1, "Home", model.UniverseInOrbit)},
		Tasks:     []model.Task{task(1, "open", nil, now), done, skipped, snoozed, wokeUp},
		Links: []model.MembershipLink{
			link(1, 1, true, nil), link(1, 2, true, nil), link(1, 3, true, nil),
			link(1, 4, true, nil), link(1, 5, true, nil),
		},
	}
	today := BuildToday(snap, now)
	require.Len(t, today.Universes[0].Buckets, 1)
	assert.ElementsMatch(t, []uint{1, 5}, taskIDs(today.Universes[0].Buckets[0].Tasks))
}

func TestBuildTodayInvisibleUniverseOnlyContributesDeadlines(t *testing.T) {
	snap := Snapshot{
		Universes: []model.Universe{
			universe(1, "Focus", model.UniverseInFocus),
			universe(2, "Sleeping", model.UniverseDormant),
		},
		Tasks: []model.Task{
			task(1, "later deadline", ptr(now.AddDate(0, 1, 0)), now),
			task(2, "soon deadline", ptr(now.AddDate(0, 0, 1)), now),
			task(3, "no deadline", nil, now),
		},
		Links: []model.MembershipLink{link(2, 1, true, nil), link(2, 2, true, nil), link(2, 3, true, nil)},
	}
	today := BuildToday(snap, now)
	require.Len(t, today.Universes, 1)
	assert.Empty(t, today.Universes[0].Buckets)
	assert.Equal(t, []uint{2, 1}, taskIDs(today.OtherDeadlines))
	require.NotNil(t, today.OtherDeadlines[0].Universe)
	assert.Equal(t, "Sleeping", today.OtherDeadlines[0].Universe.Name)
	assert.Empty(t, today.Unassigned)
}

func TestBuildTodayOrdering(t *testing.T) {
	older := now.Add(-48 * time.Hour)
	newer := now.Add(-time.Hour)
	snap := Snapshot{
		Universes: []model.Universe{universe(1, "Work", model.UniverseInFocus)},
		Tasks: []model.Task{
			task(1, "unordered old", nil, older),
			task(2, "unordered new", nil, newer),
			task(3, "second", nil, older),
			task(4, "first", nil, older),
		},
		Links: []model.MembershipLink{
			link(1, 1, true, nil), link(1, 2, true, nil),
			link(1, 3, true, ptr(2)), link(1, 4, true, ptr(1)),
		},
	}
	today := BuildToday(snap, now)
	assert.Equal(t, []uint{4, 3, 2, 1}, taskIDs(today.Universes[0].Buckets[0].Tasks))
}

func TestBuildTodayVisibleUniverseOrder(t *testing.T) {
	snap := Snapshot{Universes: []model.Universe{
		universe(1, "b orbit", model.UniverseInOrbit),
		universe(2, "a steps", model.UniverseNextSmallSteps),
		universe(3, "z focus", model.UniverseInFocus),
		universe(4, "a focus", model.UniverseInFocus),
		universe(5, "done", model.UniverseDone),
		universe(6, "new", model.UniverseNotStarted),
	}}
	today := BuildToday(snap, now)
	var names []string
	for _, g := range today.Universes {
		names = append(names, g.Universe.Name)
	}
	assert.Equal(t, []string{"a focus", "z focus", "a steps", "b orbit"}, names)
}

func TestBuildTodaySecondaryReferences(t *testing.T) {
	snoozed := task(3, "snoozed", nil, now)
	snoozed.SnoozeUntil = ptr(now.Add(time.Hour))
	done := task(4, "done", nil, now)
	done.CompletedAt = ptr(now)
	snap := Snapshot{
		Universes: []model.Universe{
			universe(1, "Work", model.UniverseInFocus),
			universe(2, "Health", model.UniverseInFocus),
		},
		Tasks: []model.Task{task(1, "gym booking", nil, now), task(2, "orphan ref", nil, now), snoozed, done},
		Links: []model.MembershipLink{
			link(2, 1, true, nil), link(1, 1, false, nil),
			link(1, 2, false, nil),
			link(2, 3, true, nil), link(1, 3, false, nil),
			link(2, 4, true, nil), link(1, 4, false, nil),
		},
	}
	today := BuildToday(snap, now)
	require.Len(t, today.Universes, 2)
	var work UniverseGroup
	for _, g := range today.Universes {
		if g.Universe.ID == 1 {
			work = g
		}
	}
	assert.Empty(t, work.Buckets)
	// Equal creation times fall back to newest id first.
	assert.Equal(t, []uint{2, 1}, taskIDs(work.Secondary))
	assert.Nil(t, work.Secondary[0].Universe)
	require.NotNil(t, work.Secondary[1].Universe)
	assert.Equal(t, "Health", work.Secondary[1].Universe.Name)

	// Task 2 has no primary universe.
	require.Len(t, today.Unassigned, 1)
	assert.Equal(t, []uint{2}, taskIDs(today.Unassigned[0].Tasks))
}

func TestBuildTodayPrimaryPointingAtMissingUniverse(t *testing.T) {
	snap := Snapshot{
		Tasks: []model.Task{task(1, "dangling", nil, now)},
		Links: []model.MembershipLink{link(99, 1, true, nil)},
	}
	today := BuildToday(snap, now)
	require.Len(t, today.Unassigned, 1)
	assert.Empty(t, today.Universes)
	assert.NotNil(t, today.OtherDeadlines)
}

func TestBuildTree(t *testing.T) {
	universes := []model.Universe{
		{ID: 1, Name: "Life"},
		{ID: 2, Name: "Work", ParentID: ptr(uint(1))},
		{ID: 3, Name: "Health", ParentID: ptr(uint(1))},
		{ID: 4, Name: "Project X", ParentID: ptr(uint(2))},
		{ID: 5, Name: "Orphan", ParentID: ptr(uint(77))},
	}
	forest := BuildTree(universes)
	require.Len(t, forest, 2)
	assert.Equal(t, "Life", forest[0].Universe.Name)
	assert.Equal(t, "Orphan", forest[1].Universe.Name)
	require.Len(t, forest[0].Children, 2)
	assert.Equal(t, "Health", forest[0].Children[0].Universe.Name)
	assert.Equal(t, "Work", forest[0].Children[1].Universe.Name)
	require.Len(t, forest[0].Children[1].Children, 1)
	assert.Equal(t, 2, forest[0].Children[1].Children[0].Depth)
}

func TestBuildTreeTerminatesOnCycles(t *testing.T) {
	universes := []model.Universe{
		{ID: 1, Name: "A", ParentID: ptr(uint(2))},
		{ID: 2, Name: "B", ParentID: ptr(uint(1))},
		{ID: 3, Name: "Self", ParentID: ptr(uint(3))},
		{ID: 4, Name: "Root"},
		{ID: 5, Name: "Under A", ParentID: ptr(uint(1))},
	}
	forest := BuildTree(universes)

	count := 0
	var walk func(nodes []*TreeNode)
	walk = func(nodes []*TreeNode) {
		for _, n := range nodes {
			count++
			walk(n.Children)
		}
	}
	walk(forest)
	assert.Equal(t, len(universes), count)
}

func TestAncestors(t *testing.T) {
	universes := []model.Universe{
		{ID: 1, Name: "Root"},
		{ID: 2, Name: "Mid", ParentID: ptr(uint(1))},
		{ID: 3, Name: "Leaf", ParentID: ptr(uint(2))},
	}
	chain := Ancestors(&universes[2], indexUniverses(universes))
	require.Len(t, chain, 2)
	assert.Equal(t, "Root", chain[0].Name)
	assert.Equal(t, "Mid", chain[1].Name)
}

func TestBuildUniverseDetail(t *testing.T) {
	snoozed := task(2, "snoozed", nil, now)
	snoozed.SnoozeUntil = ptr(now.Add(time.Hour))
	done := task(3, "done", nil, now)
	done.CompletedAt = ptr(now)

	work := universe(1, "Work", model.UniverseDormant)
	work.ParentID = ptr(uint(10))
	child := universe(2, "Sub", model.UniverseInFocus)
	child.ParentID = ptr(uint(1))

	snap := DetailSnapshot{
		Universe:  work,
		Universes: []model.Universe{universe(10, "Life", model.UniverseInFocus), work, child, universe(3, "Other", model.UniverseInFocus)},
		Tasks:     []model.Task{task(1, "mine", ptr(now), now), snoozed, done, task(4, "borrowed", nil, now)},
		TaskLinks: []model.MembershipLink{
			link(1, 1, true, nil), link(1, 2, true, nil), link(1, 3, true, nil),
			link(3, 4, true, nil), link(1, 4, false, nil),
		},
		OwnLinks: []model.MembershipLink{
			{OwnerKind: model.KindUniverse, OwnerID: 1, TargetKind: model.KindIdea, TargetID: 7, IsPrimary: false},
			{OwnerKind: model.KindUniverse, OwnerID: 1, TargetKind: model.KindIdea, TargetID: 8, IsPrimary: true},
			{OwnerKind: model.KindUniverse, OwnerID: 1, TargetKind: model.KindRecurringTask, TargetID: 9, IsPrimary: true},
		},
		Ideas: []model.Idea{
			{ID: 7, Body: "first line\nsecond line"},
			{ID: 8, Title: ptr("Titled"), Body: "x"},
		},
		RecurringTasks: []model.RecurringTask{{ID: 9, Name: "Weekly review"}},
	}

	detail := BuildUniverseDetail(snap, now)
	assert.Equal(t, "Work", detail.Universe.Name)
	require.Len(t, detail.Ancestors, 1)
	assert.Equal(t, "Life", detail.Ancestors[0].Name)
	require.Len(t, detail.Children, 1)
	assert.Equal(t, "Sub", detail.Children[0].Name)

	assert.Equal(t, []deadline.Bucket{deadline.Today, deadline.NoDeadline}, bucketNames(detail.Buckets))
	require.Len(t, detail.Buckets[1].Tasks, 1)
	assert.True(t, detail.Buckets[1].Tasks[0].Snoozed)

	require.Len(t, detail.Secondary, 1)
	assert.Equal(t, "Other", detail.Secondary[0].Universe.Name)

	require.Len(t, detail.Ideas, 2)
	assert.Equal(t, "Titled", detail.Ideas[0].Title)
	assert.Equal(t, "first line", detail.Ideas[1].Title)
	require.Len(t, detail.RecurringTasks, 1)
	assert.Empty(t, detail.IdeaPools)
}

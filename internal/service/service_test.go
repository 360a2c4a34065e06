package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"universe-planner/internal/deadline"
	"universe-planner/internal/model"
	"universe-planner/internal/repository"
)

// Wednesday.
var start = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store *repository.Store
	svc   *Services
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "planner.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	f := &fixture{store: repository.NewStore(db), now: start}
	f.svc = New(f.store, func() time.Time { return f.now }, zerolog.Nop())
	return f
}

func (f *fixture) universe(t *testing.T, name string, status model.UniverseStatus) *model.Universe {
	t.Helper()
	u, err := f.svc.Universes.CreateUniverse(context.Background(), UniverseInput{Name: name, Status: status})
	require.NoError(t, err)
	return u
}

func (f *fixture) template(t *testing.T, unit model.FrequencyUnit, universes Membership) *model.RecurringTask {
	t.Helper()
	rule, err := f.svc.RecurringTasks.CreateRecurringTask(context.Background(), RecurringTaskInput{
		Name:                   "water plants",
		FrequencyUnit:          unit,
		FrequencyInterval:      1,
		DefaultDurationMinutes: 15,
		Universes:              universes,
	})
	require.NoError(t, err)
	return rule
}

func members(ids ...uint) Membership { return Membership{OwnerIDs: ids} }

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Tasks.CreateTask(context.Background(), TaskInput{Name: "  "})
	require.ErrorIs(t, err, model.ErrValidation)

	var v *model.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Contains(t, v.Fields, "name")
	assert.Contains(t, v.Fields, "universes")
}

func TestCreateTaskRejectsUnknownUniverse(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Tasks.CreateTask(context.Background(), TaskInput{Name: "x", Universes: members(42)})
	require.ErrorIs(t, err, model.ErrNotFound)

	tasks, err := f.store.Tasks.List(context.Background(), repository.TaskFilter{IncludeTerminal: true})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCompleteRecurringSpawnsNextWithPrimaryLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	garden := f.universe(t, "Garden", model.UniverseInOrbit)
	rule := f.template(t, model.FrequencyDay, members(home.ID))

	due := start
	task, err := f.svc.Tasks.CreateTask(ctx, TaskInput{
		Name:            "water plants",
		EstimatedTime:   20,
		DeadlineAt:      &due,
		RecurringTaskID: &rule.ID,
		Universes:       Membership{OwnerIDs: []uint{home.ID, garden.ID}},
	})
	require.NoError(t, err)

	res, err := f.svc.Tasks.CompleteTask(ctx, task.ID, CompleteInput{})
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, res.Task.Status)
	require.NotNil(t, res.Next)
	assert.Equal(t, model.TaskOpen, res.Next.Status)
	assert.Equal(t, start.AddDate(0, 0, 1), *res.Next.DeadlineAt)
	assert.Equal(t, 15, res.Next.EstimatedTime)

	links, err := f.store.Links.Links(ctx, model.KindUniverse, res.Next.Ref())
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, home.ID, links[0].OwnerID)
	assert.True(t, links[0].IsPrimary)

	open, err := f.store.Tasks.List(ctx, repository.TaskFilter{RecurringTaskID: &rule.ID})
	require.NoError(t, err)
	assert.Len(t, open, 1)

	entries, err := f.svc.Journal.List(ctx, repository.LogFilter{Loggable: refPtr(task.Ref())})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	require.NotNil(t, entries[0].Minutes)
	assert.Equal(t, 20, *entries[0].Minutes)
}

func TestCompleteTwiceIsConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	task, err := f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "once", Universes: members(home.ID)})
	require.NoError(t, err)

	_, err = f.svc.Tasks.CompleteTask(ctx, task.ID, CompleteInput{})
	require.NoError(t, err)
	_, err = f.svc.Tasks.CompleteTask(ctx, task.ID, CompleteInput{})
	assert.ErrorIs(t, err, model.ErrConflict)
	_, err = f.svc.Tasks.SkipTask(ctx, task.ID)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestSkipCountsFromSkippedDeadline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	rule := f.template(t, model.FrequencyWeek, members(home.ID))

	due := time.Date(2024, time.January, 10, 18, 0, 0, 0, time.UTC)
	task, err := f.svc.Tasks.CreateTask(ctx, TaskInput{
		Name: "review", DeadlineAt: &due, RecurringTaskID: &rule.ID, Universes: members(home.ID),
	})
	require.NoError(t, err)

	f.now = time.Date(2024, time.January, 12, 10, 0, 0, 0, time.UTC)
	res, err := f.svc.Tasks.SkipTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskSkipped, res.Task.Status)
	require.NotNil(t, res.Next)
	assert.WithinDuration(t, time.Date(2024, time.January, 17, 18, 0, 0, 0, time.UTC), *res.Next.DeadlineAt, 0)
}

func TestInactiveTemplateDoesNotSpawn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	rule := f.template(t, model.FrequencyDay, members(home.ID))

	inactive := false
	_, err := f.svc.RecurringTasks.UpdateRecurringTask(ctx, rule.ID, RecurringTaskInput{
		Name: rule.Name, FrequencyUnit: rule.FrequencyUnit, FrequencyInterval: 1, Active: &inactive,
		Universes: members(home.ID),
	})
	require.NoError(t, err)

	task, err := f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "x", RecurringTaskID: &rule.ID, Universes: members(home.ID)})
	require.NoError(t, err)
	res, err := f.svc.Tasks.CompleteTask(ctx, task.ID, CompleteInput{})
	require.NoError(t, err)
	assert.Nil(t, res.Next)

	_, err = f.svc.RecurringTasks.Seed(ctx, rule.ID, nil)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestSeedCopiesAllTemplateLinks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	garden := f.universe(t, "Garden", model.UniverseInOrbit)
	rule := f.template(t, model.FrequencyMonth, Membership{OwnerIDs: []uint{home.ID, garden.ID}, PrimaryIndex: 1})

	task, err := f.svc.RecurringTasks.Seed(ctx, rule.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 1, 0), *task.DeadlineAt)

	links, err := f.store.Links.Links(ctx, model.KindUniverse, task.Ref())
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, garden.ID, links[0].OwnerID)
	assert.True(t, links[0].IsPrimary)
	assert.False(t, links[1].IsPrimary)
}

func TestSeedFallsBackToLatestInstance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	rule := f.template(t, model.FrequencyDay, Membership{})

	_, err := f.svc.RecurringTasks.Seed(ctx, rule.ID, nil)
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "earlier", RecurringTaskID: &rule.ID, Universes: members(home.ID)})
	require.NoError(t, err)

	explicit := start.AddDate(0, 0, 5)
	task, err := f.svc.RecurringTasks.Seed(ctx, rule.ID, &explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, *task.DeadlineAt)

	primary, err := f.store.Links.PrimaryOwner(ctx, model.KindUniverse, task.Ref())
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, home.ID, primary.OwnerID)
}

func TestEditsCoalesceIntoDailyLog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	task, err := f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "draft", Universes: members(home.ID)})
	require.NoError(t, err)

	_, err = f.svc.Tasks.UpdateTask(ctx, task.ID, TaskInput{Name: "draft v2", Universes: members(home.ID)})
	require.NoError(t, err)
	f.now = start.Add(2 * time.Hour)
	_, err = f.svc.Tasks.UpdateTask(ctx, task.ID, TaskInput{Name: "draft v2", Description: "more", Universes: members(home.ID)})
	require.NoError(t, err)

	entries, err := f.svc.Journal.List(ctx, repository.LogFilter{Loggable: refPtr(task.Ref())})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Created task\nEdited task: name\nEdited task: description", *entries[0].Notes)

	f.now = start.AddDate(0, 0, 1)
	_, err = f.svc.Tasks.UpdateTask(ctx, task.ID, TaskInput{Name: "final", Description: "more", Universes: members(home.ID)})
	require.NoError(t, err)
	entries, err = f.svc.Journal.List(ctx, repository.LogFilter{Loggable: refPtr(task.Ref())})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Edited task: name", *entries[0].Notes)
}

func TestSnoozeHidesFromToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	task, err := f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "later", Universes: members(home.ID)})
	require.NoError(t, err)

	_, err = f.svc.Tasks.SnoozeTask(ctx, task.ID, &start)
	require.ErrorIs(t, err, model.ErrValidation)

	until := start.AddDate(0, 0, 2)
	_, err = f.svc.Tasks.SnoozeTask(ctx, task.ID, &until)
	require.NoError(t, err)

	today, err := f.svc.Today.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today.Universes, 1)
	assert.Empty(t, today.Universes[0].Buckets)

	listed, err := f.svc.Tasks.ListTasks(ctx, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestTodayReconcilesAndBuckets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	archive := f.universe(t, "Archive", model.UniverseDormant)

	tomorrow := start.AddDate(0, 0, 1)
	late, err := f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "bills", DeadlineAt: &tomorrow, Universes: members(home.ID)})
	require.NoError(t, err)
	_, err = f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "old", DeadlineAt: &tomorrow, Universes: members(archive.ID)})
	require.NoError(t, err)

	f.now = start.AddDate(0, 0, 3)
	today, err := f.svc.Today.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.now, today.GeneratedAt)
	require.Len(t, today.Universes, 1)
	require.Len(t, today.Universes[0].Buckets, 1)
	assert.Equal(t, deadline.Overdue, today.Universes[0].Buckets[0].Bucket)
	require.Len(t, today.OtherDeadlines, 1)
	assert.Equal(t, "old", today.OtherDeadlines[0].Name)

	stored, err := f.store.Tasks.FindByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskLate, stored.Status)
}

func TestReparentCycleGuard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.universe(t, "A", model.UniverseInFocus)
	b, err := f.svc.Universes.CreateUniverse(ctx, UniverseInput{Name: "B", ParentID: &a.ID})
	require.NoError(t, err)
	c, err := f.svc.Universes.CreateUniverse(ctx, UniverseInput{Name: "C", ParentID: &b.ID})
	require.NoError(t, err)

	_, err = f.svc.Universes.UpdateUniverse(ctx, a.ID, UniverseInput{Name: "A", ParentID: &c.ID})
	assert.ErrorIs(t, err, model.ErrInvariant)
	_, err = f.svc.Universes.UpdateUniverse(ctx, a.ID, UniverseInput{Name: "A", ParentID: &a.ID})
	assert.ErrorIs(t, err, model.ErrInvariant)

	_, err = f.svc.Universes.UpdateUniverse(ctx, c.ID, UniverseInput{Name: "C", ParentID: &a.ID})
	require.NoError(t, err)

	tree, err := f.svc.Universes.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Len(t, tree[0].Children, 2)
}

func TestDeleteUniverseDetachesChildrenAndLinks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.universe(t, "A", model.UniverseInFocus)
	child, err := f.svc.Universes.CreateUniverse(ctx, UniverseInput{Name: "child", ParentID: &a.ID})
	require.NoError(t, err)
	task, err := f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "t", Universes: members(a.ID)})
	require.NoError(t, err)

	require.NoError(t, f.svc.Universes.DeleteUniverse(ctx, a.ID))

	loaded, err := f.svc.Universes.GetUniverse(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.ParentID)

	details, err := f.svc.Tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, details.Universes)

	today, err := f.svc.Today.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today.Unassigned, 1)
}

func TestDeleteTaskKeepsJournal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	task, err := f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "gone", Universes: members(home.ID)})
	require.NoError(t, err)

	require.NoError(t, f.svc.Tasks.DeleteTask(ctx, task.ID))
	assert.ErrorIs(t, f.svc.Tasks.DeleteTask(ctx, task.ID), model.ErrNotFound)

	links, err := f.store.Links.TargetsOf(ctx, home.Ref(), model.KindTask)
	require.NoError(t, err)
	assert.Empty(t, links)

	entries, err := f.svc.Journal.List(ctx, repository.LogFilter{})
	require.NoError(t, err)
	var standalone int
	for _, e := range entries {
		if e.Notes != nil && *e.Notes == "Created task" {
			assert.Nil(t, e.Loggable())
			standalone++
		}
	}
	assert.Equal(t, 1, standalone)
}

func TestDeleteRecurringTaskKeepsInstances(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	rule := f.template(t, model.FrequencyDay, members(home.ID))
	task, err := f.svc.RecurringTasks.Seed(ctx, rule.ID, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.RecurringTasks.DeleteRecurringTask(ctx, rule.ID))
	loaded, err := f.store.Tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.RecurringTaskID)
}

func TestIdeaPoolMembershipAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	pool, err := f.svc.IdeaPools.CreateIdeaPool(ctx, IdeaPoolInput{Name: "Someday", Universes: members(home.ID)})
	require.NoError(t, err)
	idea, err := f.svc.Ideas.CreateIdea(ctx, IdeaInput{Body: "learn the cello\nmaybe", Pools: members(pool.ID)})
	require.NoError(t, err)

	details, err := f.svc.IdeaPools.GetIdeaPool(ctx, pool.ID)
	require.NoError(t, err)
	require.Len(t, details.Ideas, 1)
	assert.Equal(t, idea.ID, details.Ideas[0].ID)

	detail, err := f.svc.Universes.Detail(ctx, home.ID)
	require.NoError(t, err)
	require.Len(t, detail.IdeaPools, 1)
	assert.Equal(t, "Someday", detail.IdeaPools[0].Title)

	require.NoError(t, f.svc.IdeaPools.DeleteIdeaPool(ctx, pool.ID))
	got, err := f.svc.Ideas.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Pools)

	detail, err = f.svc.Universes.Detail(ctx, home.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.IdeaPools)
}

func TestReorderTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	first, err := f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "first", Universes: members(home.ID)})
	require.NoError(t, err)
	second, err := f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "second", Universes: members(home.ID)})
	require.NoError(t, err)

	require.NoError(t, f.svc.Universes.ReorderTasks(ctx, home.ID, []uint{second.ID, first.ID}))
	today, err := f.svc.Today.Today(ctx)
	require.NoError(t, err)
	tasks := today.Universes[0].Buckets[0].Tasks
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)

	err = f.svc.Universes.ReorderTasks(ctx, home.ID, []uint{999})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestJournal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	kind := "task"
	_, err := f.svc.Journal.Create(ctx, LogInput{LoggableKind: &kind})
	require.ErrorIs(t, err, model.ErrValidation)

	var id uint = 7
	_, err = f.svc.Journal.Create(ctx, LogInput{LoggableKind: &kind, LoggableID: &id})
	require.ErrorIs(t, err, model.ErrNotFound)

	minutes, notes := 30, "reading"
	entry, err := f.svc.Journal.Create(ctx, LogInput{Minutes: &minutes, Notes: &notes})
	require.NoError(t, err)
	assert.Nil(t, entry.Loggable())

	more := 45
	edited, err := f.svc.Journal.Edit(ctx, entry.ID, LogInput{Minutes: &more, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, 45, *edited.Minutes)

	require.NoError(t, f.svc.Journal.Delete(ctx, entry.ID))
	_, err = f.svc.Journal.Get(ctx, entry.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestChangeNote(t *testing.T) {
	assert.Equal(t, "Edited idea pool", changeNote(model.KindIdeaPool, nil))
	assert.True(t, strings.HasPrefix(changeNote(model.KindTask, []string{"name", "deadline"}), "Edited task: name, deadline"))
}

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("00:01")
	require.NoError(t, err)
	assert.Equal(t, "0 1 0 * * *", spec)

	for _, bad := range []string{"24:00", "7", "07:60", "aa:00"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestScheduleReconcile(t *testing.T) {
	f := newFixture(t)
	s := NewSchedulerService(time.UTC, zerolog.Nop())
	require.NoError(t, s.ScheduleReconcile(context.Background(), f.svc.Tasks, time.Hour))
	assert.Equal(t, 2, s.Entries())

	s = NewSchedulerService(time.UTC, zerolog.Nop())
	require.NoError(t, s.ScheduleReconcile(context.Background(), f.svc.Tasks, 0))
	assert.Equal(t, 1, s.Entries())
}

func TestRecurrenceUsesOneNowPerOperation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	home := f.universe(t, "Home", model.UniverseInFocus)
	rule := f.template(t, model.FrequencyDay, members(home.ID))
	task, err := f.svc.Tasks.CreateTask(ctx, TaskInput{Name: "water plants", RecurringTaskID: &rule.ID, Universes: members(home.ID)})
	require.NoError(t, err)

	// Each read moves the clock a second forward, across midnight.
	at := time.Date(2024, time.January, 10, 23, 59, 59, 500_000_000, time.UTC)
	reads := 0
	svc := New(f.store, func() time.Time {
		reads++
		return at.Add(time.Duration(reads-1) * time.Second)
	}, zerolog.Nop())

	res, err := svc.Tasks.CompleteTask(ctx, task.ID, CompleteInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, reads)
	require.NotNil(t, res.Next)
	assert.WithinDuration(t, at.AddDate(0, 0, 1), *res.Next.DeadlineAt, 0)
	assert.WithinDuration(t, at, *res.Task.CompletedAt, 0)

	reads = 0
	seeded, err := svc.RecurringTasks.Seed(ctx, rule.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reads)
	assert.WithinDuration(t, at.AddDate(0, 0, 1), *seeded.DeadlineAt, 0)
}

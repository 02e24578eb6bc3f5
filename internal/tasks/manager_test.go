package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/store"
	"github.com/nhle/pulse/internal/tasks"
	"github.com/nhle/pulse/tests/testutil"
)

func ptr[T any](v T) *T { return &v }

func mustCreate(t *testing.T, m *tasks.Manager, title, tag string) *model.Task {
	t.Helper()
	task, err := m.CreateTask(t.Context(), title, "", tag)
	if err != nil {
		t.Fatalf("CreateTask(%q, %q): %v", title, tag, err)
	}
	return task
}

func TestCreateTaskAssignsIDsAndOrders(t *testing.T) {
	m := testutil.NewTestManager(t)

	for i := 1; i <= 4; i++ {
		task := mustCreate(t, m, "task", "work")
		if task.ID != i || task.Order != i {
			t.Errorf("task %d: got id=%d order=%d", i, task.ID, task.Order)
		}
		if task.Status != model.StatusPending {
			t.Errorf("task %d: expected PENDING, got %s", i, task.Status)
		}
		if task.Tag != "work" {
			t.Errorf("task %d: expected tag work, got %s", i, task.Tag)
		}
	}
}

func TestIDsNeverReusedAndOrdersNotResequenced(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()

	if err := m.CreateTag(ctx, "work", nil); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	a := mustCreate(t, m, "A", "work")
	b := mustCreate(t, m, "B", "work")
	if a.ID != 1 || a.Order != 1 || b.ID != 2 || b.Order != 2 {
		t.Fatalf("unexpected A=%+v B=%+v", a, b)
	}

	ok, err := m.DeleteTask(ctx, a.ID, "work")
	if err != nil || !ok {
		t.Fatalf("DeleteTask: ok=%v err=%v", ok, err)
	}

	c := mustCreate(t, m, "C", "work")
	if c.ID != 3 {
		t.Errorf("expected id 3, got %d", c.ID)
	}
	if c.Order != 2 {
		t.Errorf("expected order 2, got %d", c.Order)
	}

	list, err := m.ListTasks(ctx, "work", "")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(list) != 2 || list[0].Order != 2 || list[1].Order != 2 {
		t.Errorf("task orders should keep the gap: %+v", list)
	}
}

func TestCreateTaskNormalisesTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Feature Epic", "feature-epic"},
		{"!!!", "base"},
		{"", "base"},
		{"snake_case_tag", "snake-case-tag"},
	}

	m := testutil.NewTestManager(t)
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			task := mustCreate(t, m, "x", tt.in)
			if task.Tag != tt.want {
				t.Errorf("tag %q: got %q, want %q", tt.in, task.Tag, tt.want)
			}
			got, err := m.GetTask(t.Context(), task.ID, tt.want)
			if err != nil {
				t.Fatalf("GetTask: %v", err)
			}
			if got.Title != "x" {
				t.Errorf("task not stored under %s", tt.want)
			}
		})
	}
}

func TestCreateTaskRejectsEmptyTitle(t *testing.T) {
	m := testutil.NewTestManager(t)
	_, err := m.CreateTask(t.Context(), "   ", "", "base")
	if !errors.Is(err, tasks.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if !errors.Is(err, tasks.ErrNotFound) {
		t.Error("ErrInvalid should also match ErrNotFound")
	}
}

func TestIDsScopedPerTag(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()

	base := mustCreate(t, m, "Base Task", "base")
	devops := mustCreate(t, m, "Devops Task", "devops")
	if base.ID != 1 || devops.ID != 1 {
		t.Fatalf("expected both ids to be 1, got %d and %d", base.ID, devops.ID)
	}

	if _, err := m.AddSubtask(ctx, devops.ID, "Subtask for Devops", "devops"); err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}
	if _, err := m.UpdateTaskStatus(ctx, 1, model.StatusDone, "base", model.StatusOptions{}); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}

	gotBase, err := m.GetTask(ctx, 1, "base")
	if err != nil {
		t.Fatalf("GetTask base: %v", err)
	}
	gotDevops, err := m.GetTask(ctx, 1, "devops")
	if err != nil {
		t.Fatalf("GetTask devops: %v", err)
	}

	if len(gotBase.Subtasks) != 0 {
		t.Errorf("base task should have no subtasks, got %d", len(gotBase.Subtasks))
	}
	if len(gotDevops.Subtasks) != 1 || gotDevops.Subtasks[0].Title != "Subtask for Devops" {
		t.Errorf("devops subtasks wrong: %+v", gotDevops.Subtasks)
	}
	if gotBase.Status != model.StatusDone || gotDevops.Status != model.StatusPending {
		t.Errorf("status leaked across tags: base=%s devops=%s", gotBase.Status, gotDevops.Status)
	}
}

func TestUpdateTaskFields(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()
	task, err := m.CreateTask(ctx, "Draft", "old", "base")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	updated, err := m.UpdateTask(ctx, task.ID, model.TaskUpdate{
		Title:       ptr("Final"),
		Description: ptr(""),
	})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Title != "Final" || updated.Description != "" {
		t.Errorf("unexpected update result %+v", updated)
	}
	if !updated.UpdatedAt.After(task.UpdatedAt) {
		t.Error("UpdatedAt should be refreshed")
	}

	if _, err := m.UpdateTask(ctx, task.ID, model.TaskUpdate{Title: ptr("")}); !errors.Is(err, tasks.ErrInvalid) {
		t.Errorf("empty title: expected ErrInvalid, got %v", err)
	}
	if _, err := m.UpdateTask(ctx, 42, model.TaskUpdate{Title: ptr("x")}); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("missing task: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTaskMovesBetweenTags(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()

	mustCreate(t, m, "stay", "base")
	mover := mustCreate(t, m, "move me", "base")
	mustCreate(t, m, "already here", "release")

	moved, err := m.UpdateTask(ctx, mover.ID, model.TaskUpdate{Tag: ptr("Release")})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if moved.Tag != "release" || moved.Order != 2 {
		t.Errorf("expected tag release order 2, got %s order %d", moved.Tag, moved.Order)
	}
	if moved.ID != 2 {
		t.Errorf("id 2 is free in release and should be kept, got %d", moved.ID)
	}

	baseTasks, err := m.ListTasks(ctx, "base", "")
	if err != nil {
		t.Fatalf("ListTasks base: %v", err)
	}
	if len(baseTasks) != 1 || baseTasks[0].Title != "stay" {
		t.Errorf("source shard wrong: %+v", baseTasks)
	}

	got, err := m.GetTask(ctx, moved.ID, "release")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "move me" {
		t.Errorf("destination holds %q", got.Title)
	}

	// The journal is empty after a successful move.
	pending, err := store.NewJournal(m.Dir(), nil).Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending moves, got %d", len(pending))
	}

	// release now holds ids 1 and 2; the next task must not collide.
	next := mustCreate(t, m, "after move", "release")
	if next.ID != 3 {
		t.Errorf("expected id 3 after move, got %d", next.ID)
	}
}

func TestUpdateTaskMoveReassignsCollidingID(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()

	mover := mustCreate(t, m, "from base", "base")
	mustCreate(t, m, "occupies id 1", "ops")

	moved, err := m.UpdateTask(ctx, mover.ID, model.TaskUpdate{Tag: ptr("ops")})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if moved.ID != 2 {
		t.Errorf("expected colliding id to become 2, got %d", moved.ID)
	}

	list, err := m.ListTasks(ctx, "ops", "")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(list) != 2 || list[0].ID == list[1].ID {
		t.Errorf("ids must be unique within ops: %+v", list)
	}
}

func TestUpdateTaskInvalidTagChangesNothing(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()
	task := mustCreate(t, m, "keep", "base")

	_, err := m.UpdateTask(ctx, task.ID, model.TaskUpdate{Title: ptr("renamed"), Tag: ptr("???")})
	if !errors.Is(err, tasks.ErrNotFound) {
		t.Fatalf("expected not-found semantics, got %v", err)
	}

	got, err := m.GetTask(ctx, task.ID, "base")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "keep" {
		t.Errorf("title should be untouched, got %q", got.Title)
	}
}

func TestUpdateTaskStatusCascadeIsOptIn(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()
	task := mustCreate(t, m, "parent", "base")
	for _, title := range []string{"one", "two"} {
		if _, err := m.AddSubtask(ctx, task.ID, title, ""); err != nil {
			t.Fatalf("AddSubtask: %v", err)
		}
	}

	done, err := m.UpdateTaskStatus(ctx, task.ID, model.StatusDone, "", model.StatusOptions{})
	if err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if done.Status != model.StatusDone {
		t.Errorf("expected DONE, got %s", done.Status)
	}
	for _, st := range done.Subtasks {
		if st.Status != model.StatusPending {
			t.Errorf("subtask %d changed without opt-in: %s", st.ID, st.Status)
		}
	}

	cascaded, err := m.UpdateTaskStatus(ctx, task.ID, model.StatusDone, "base", model.StatusOptions{CompleteSubtasks: true})
	if err != nil {
		t.Fatalf("UpdateTaskStatus cascade: %v", err)
	}
	for _, st := range cascaded.Subtasks {
		if st.Status != model.StatusDone {
			t.Errorf("subtask %d should be DONE, got %s", st.ID, st.Status)
		}
	}

	if _, err := m.UpdateTaskStatus(ctx, task.ID, model.Status("BLOCKED"), "", model.StatusOptions{}); !errors.Is(err, tasks.ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown status, got %v", err)
	}
	if _, err := m.UpdateTaskStatus(ctx, task.ID, model.StatusDone, "elsewhere", model.StatusOptions{}); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("tag hint should confine lookup, got %v", err)
	}
}

func TestListTasksFiltersAndAggregates(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()

	mustCreate(t, m, "a1", "alpha")
	a2 := mustCreate(t, m, "a2", "alpha")
	mustCreate(t, m, "b1", "beta")
	if _, err := m.UpdateTaskStatus(ctx, a2.ID, model.StatusDone, "alpha", model.StatusOptions{}); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}

	all, err := m.ListTasks(ctx, "", "")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 tasks across tags, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Order > all[i].Order {
			t.Errorf("list not sorted by order: %+v", all)
		}
	}

	done, err := m.ListTasks(ctx, "", model.StatusDone)
	if err != nil {
		t.Fatalf("ListTasks done: %v", err)
	}
	if len(done) != 1 || done[0].Title != "a2" {
		t.Errorf("status filter wrong: %+v", done)
	}

	beta, err := m.ListTasks(ctx, "Beta", "")
	if err != nil {
		t.Fatalf("ListTasks beta: %v", err)
	}
	if len(beta) != 1 || beta[0].Tag != "beta" {
		t.Errorf("tag filter wrong: %+v", beta)
	}

	none, err := m.ListTasks(ctx, "missing", "")
	if err != nil {
		t.Fatalf("ListTasks missing: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected empty list, got %+v", none)
	}
}

func TestGetNextTaskPriority(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()

	if _, err := m.GetNextTask(ctx, ""); !errors.Is(err, tasks.ErrNotFound) {
		t.Fatalf("empty store: expected ErrNotFound, got %v", err)
	}

	first := mustCreate(t, m, "first", "base")
	second := mustCreate(t, m, "second", "base")

	next, err := m.GetNextTask(ctx, "base")
	if err != nil {
		t.Fatalf("GetNextTask: %v", err)
	}
	if next.ID != first.ID {
		t.Errorf("expected first pending task, got %d", next.ID)
	}

	if _, err := m.UpdateTaskStatus(ctx, second.ID, model.StatusInProgress, "base", model.StatusOptions{}); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	next, err = m.GetNextTask(ctx, "base")
	if err != nil {
		t.Fatalf("GetNextTask: %v", err)
	}
	if next.ID != second.ID {
		t.Errorf("INPROGRESS should win over PENDING, got %d", next.ID)
	}

	for _, id := range []int{first.ID, second.ID} {
		if _, err := m.UpdateTaskStatus(ctx, id, model.StatusDone, "base", model.StatusOptions{}); err != nil {
			t.Fatalf("UpdateTaskStatus: %v", err)
		}
	}
	if _, err := m.GetNextTask(ctx, "base"); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("all done: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()
	task := mustCreate(t, m, "doomed", "base")
	if _, err := m.AddSubtask(ctx, task.ID, "child", "base"); err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}

	ok, err := m.DeleteTask(ctx, task.ID, "")
	if err != nil || !ok {
		t.Fatalf("DeleteTask: ok=%v err=%v", ok, err)
	}
	ok, err = m.DeleteTask(ctx, task.ID, "")
	if err != nil || ok {
		t.Errorf("second delete: ok=%v err=%v", ok, err)
	}
	if _, err := m.GetTask(ctx, task.ID, ""); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRecoverCompletesInterruptedMove(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()

	m := tasks.New(s, nil)
	task := mustCreate(t, m, "in flight", "base")

	// Simulate a crash after the source save and before the destination save.
	placed := *task
	placed.Tag = "later"
	placed.Order = 1
	if _, err := store.NewJournal(s.Dir(), nil).Begin(store.Move{
		SourceID: task.ID, Task: placed, From: "base", To: "later",
	}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	src, err := s.Load(ctx, "base")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	src.Tasks = src.Tasks[:0]
	if err := s.Save(ctx, "base", src); err != nil {
		t.Fatalf("Save: %v", err)
	}

	recovered, err := tasks.Open(ctx, s, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	got, err := recovered.GetTask(ctx, task.ID, "later")
	if err != nil {
		t.Fatalf("task lost after recovery: %v", err)
	}
	if got.Title != "in flight" || got.Tag != "later" {
		t.Errorf("unexpected recovered task %+v", got)
	}
	if _, err := recovered.GetTask(ctx, task.ID, "base"); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("task should not remain in base, got %v", err)
	}

	pending, err := store.NewJournal(s.Dir(), nil).Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("journal should be empty, got %d entries", len(pending))
	}
}

func TestRecoverFinishesMoveBeforeSourceSave(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()

	m := tasks.New(s, nil)
	task := mustCreate(t, m, "not yet moved", "base")

	placed := *task
	placed.Tag = "ops"
	if _, err := store.NewJournal(s.Dir(), nil).Begin(store.Move{
		SourceID: task.ID, Task: placed, From: "base", To: "ops",
	}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := tasks.Open(ctx, s, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}

	base, err := m.ListTasks(ctx, "base", "")
	if err != nil {
		t.Fatalf("ListTasks base: %v", err)
	}
	ops, err := m.ListTasks(ctx, "ops", "")
	if err != nil {
		t.Fatalf("ListTasks ops: %v", err)
	}
	if len(base) != 0 || len(ops) != 1 {
		t.Errorf("expected task only in ops, base=%d ops=%d", len(base), len(ops))
	}
}

func TestManagerOnSQLiteBackend(t *testing.T) {
	m, err := tasks.Open(t.Context(), testutil.NewTestSQLiteStore(t), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	a := mustCreate(t, m, "sqlite a", "db")
	moved, err := m.UpdateTask(t.Context(), a.ID, model.TaskUpdate{Tag: ptr("other")})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if moved.Tag != "other" {
		t.Errorf("expected tag other, got %s", moved.Tag)
	}

	tags, err := m.GetAllTags(t.Context())
	if err != nil {
		t.Fatalf("GetAllTags: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("expected db and other shards, got %v", tags)
	}
}

func TestUpdateTaskInStaysInTag(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()
	mustCreate(t, m, "in base", "base")
	mustCreate(t, m, "in work", "work")

	got, err := m.UpdateTaskIn(ctx, 1, "work", model.TaskUpdate{Title: ptr("renamed")})
	if err != nil {
		t.Fatalf("UpdateTaskIn: %v", err)
	}
	if got.Tag != "work" {
		t.Errorf("updated task in %s, want work", got.Tag)
	}
	if base, _ := m.GetTask(ctx, 1, "base"); base.Title != "in base" {
		t.Errorf("base task changed: %q", base.Title)
	}
	if _, err := m.UpdateTaskIn(ctx, 1, "empty", model.TaskUpdate{Title: ptr("x")}); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a tag without the task, got %v", err)
	}
}

var errDiskFull = errors.New("disk full")

// brokenStore fails every Save for one tag.
type brokenStore struct {
	store.ShardStore
	tag string
}

func (s brokenStore) Save(ctx context.Context, tag string, shard *model.Shard) error {
	if tag == s.tag {
		return errDiskFull
	}
	return s.ShardStore.Save(ctx, tag, shard)
}

func pendingMoves(t *testing.T, dir string) []store.Move {
	t.Helper()
	moves, err := store.NewJournal(dir, nil).Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	return moves
}

func TestWriteFailuresAreNotNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()
	mustCreate(t, tasks.New(s, nil), "existing", "base")

	m := tasks.New(brokenStore{ShardStore: s, tag: "base"}, nil)

	_, err := m.CreateTask(ctx, "new", "", "base")
	if !errors.Is(err, errDiskFull) || errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("CreateTask: expected write error, got %v", err)
	}
	_, err = m.UpdateTaskStatus(ctx, 1, model.StatusDone, "base", model.StatusOptions{})
	if !errors.Is(err, errDiskFull) || errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("UpdateTaskStatus: expected write error, got %v", err)
	}

	list, err := tasks.New(s, nil).ListTasks(ctx, "base", "")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(list) != 1 || list[0].Status != model.StatusPending {
		t.Errorf("shard should be untouched, got %+v", list)
	}
}

func TestMoveWithFailedSourceSaveIsNotReplayed(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()
	mustCreate(t, tasks.New(s, nil), "stay", "src")

	m := tasks.New(brokenStore{ShardStore: s, tag: "src"}, nil)
	_, err := m.UpdateTask(ctx, 1, model.TaskUpdate{Tag: ptr("dst")})
	if !errors.Is(err, errDiskFull) || errors.Is(err, tasks.ErrNotFound) {
		t.Fatalf("expected write error, got %v", err)
	}
	if moves := pendingMoves(t, s.Dir()); len(moves) != 0 {
		t.Errorf("failed move left %d journal entries", len(moves))
	}

	reopened, err := tasks.Open(ctx, s, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := reopened.GetTask(ctx, 1, "src"); err != nil {
		t.Errorf("task should still be in src: %v", err)
	}
	if dst, _ := reopened.ListTasks(ctx, "dst", ""); len(dst) != 0 {
		t.Errorf("dst should be empty, got %d tasks", len(dst))
	}
}

func TestMoveWithFailedDestinationSaveIsRecovered(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()
	mustCreate(t, tasks.New(s, nil), "travelling", "src")

	m := tasks.New(brokenStore{ShardStore: s, tag: "dst"}, nil)
	_, err := m.UpdateTask(ctx, 1, model.TaskUpdate{Tag: ptr("dst")})
	if !errors.Is(err, errDiskFull) || errors.Is(err, tasks.ErrNotFound) {
		t.Fatalf("expected write error, got %v", err)
	}
	if moves := pendingMoves(t, s.Dir()); len(moves) != 1 {
		t.Fatalf("expected the move to stay journaled, got %d entries", len(moves))
	}
	if all, _ := tasks.New(s, nil).ListTasks(ctx, "", ""); len(all) != 0 {
		t.Errorf("task should be in neither shard before recovery, got %d", len(all))
	}

	reopened, err := tasks.Open(ctx, s, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := reopened.GetTask(ctx, 1, "dst")
	if err != nil || got.Title != "travelling" {
		t.Errorf("task not recovered into dst: %+v %v", got, err)
	}
	if src, _ := reopened.ListTasks(ctx, "src", ""); len(src) != 0 {
		t.Errorf("src should be empty, got %d tasks", len(src))
	}
	if moves := pendingMoves(t, s.Dir()); len(moves) != 0 {
		t.Errorf("journal should be empty after recovery, got %d", len(moves))
	}
}

func TestRecoverKeepsTaskWhenDestinationIDWasTaken(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()
	m := tasks.New(s, nil, tasks.WithClock(testutil.Clock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))))
	task := mustCreate(t, m, "in flight", "base")

	placed := *task
	placed.Tag = "later"
	if _, err := store.NewJournal(s.Dir(), nil).Begin(store.Move{
		SourceID: task.ID, Task: placed, From: "base", To: "later",
	}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := m.DeleteTask(ctx, task.ID, "base"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	// Another process claims id 1 in the destination before recovery.
	mustCreate(t, m, "squatter", "later")

	reopened, err := tasks.Open(ctx, s, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	later, err := reopened.ListTasks(ctx, "later", "")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(later) != 2 {
		t.Fatalf("expected both tasks in later, got %+v", later)
	}
	if later[0].Title != "squatter" || later[0].ID != 1 {
		t.Errorf("existing task disturbed: %+v", later[0])
	}
	if later[1].Title != "in flight" || later[1].ID != 2 {
		t.Errorf("moved task should take the next id: %+v", later[1])
	}
}

func TestRecoverDoesNotDuplicatePlacedTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := t.Context()
	m := tasks.New(s, nil)
	task := mustCreate(t, m, "both saved", "base")

	placed := *task
	placed.Tag = "ops"
	placed.Order = 1
	if _, err := store.NewJournal(s.Dir(), nil).Begin(store.Move{
		SourceID: task.ID, Task: placed, From: "base", To: "ops",
	}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := s.Save(ctx, "ops", &model.Shard{NextID: 2, Tasks: []model.Task{placed}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := tasks.Open(ctx, s, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if ops, _ := reopened.ListTasks(ctx, "ops", ""); len(ops) != 1 {
		t.Errorf("expected a single copy in ops, got %d", len(ops))
	}
	if base, _ := reopened.ListTasks(ctx, "base", ""); len(base) != 0 {
		t.Errorf("base should be empty, got %d", len(base))
	}
}

package tasks_test

import (
	"errors"
	"testing"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/tasks"
	"github.com/nhle/pulse/tests/testutil"
)

func withSubtasks(t *testing.T, m *tasks.Manager, titles ...string) *model.Task {
	t.Helper()
	parent := mustCreate(t, m, "parent", "base")
	for _, title := range titles {
		if _, err := m.AddSubtask(t.Context(), parent.ID, title, "base"); err != nil {
			t.Fatalf("AddSubtask(%q): %v", title, err)
		}
	}
	return parent
}

func subtaskTitles(t *testing.T, m *tasks.Manager, parentID int) []string {
	t.Helper()
	task, err := m.GetTask(t.Context(), parentID, "base")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	titles := make([]string, len(task.Subtasks))
	for i, st := range task.Subtasks {
		if st.Order != i+1 {
			t.Errorf("subtask %q at position %d has order %d", st.Title, i, st.Order)
		}
		titles[i] = st.Title
	}
	return titles
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAddSubtask(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()
	parent := mustCreate(t, m, "parent", "base")

	sub, err := m.AddSubtask(ctx, parent.ID, "first", "")
	if err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}
	if sub.ID != 1 || sub.Order != 1 || sub.Status != model.StatusPending {
		t.Errorf("unexpected subtask %+v", sub)
	}

	if _, err := m.AddSubtask(ctx, 99, "orphan", ""); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("missing parent: expected ErrNotFound, got %v", err)
	}
	if _, err := m.AddSubtask(ctx, parent.ID, "  ", ""); !errors.Is(err, tasks.ErrInvalid) {
		t.Errorf("blank title: expected ErrInvalid, got %v", err)
	}

	got, err := m.GetTask(ctx, parent.ID, "base")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !got.UpdatedAt.After(parent.UpdatedAt) {
		t.Error("parent UpdatedAt should be refreshed")
	}
}

func TestAddSubtaskAfterDeleteAvoidsDuplicateID(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()
	parent := withSubtasks(t, m, "one", "two")

	if ok, err := m.DeleteSubtask(ctx, parent.ID, 1, "base"); err != nil || !ok {
		t.Fatalf("DeleteSubtask: ok=%v err=%v", ok, err)
	}
	sub, err := m.AddSubtask(ctx, parent.ID, "three", "base")
	if err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}
	if sub.ID != 3 {
		t.Errorf("id 2 is still taken, expected 3, got %d", sub.ID)
	}
	if sub.Order != 2 {
		t.Errorf("expected order 2, got %d", sub.Order)
	}
}

func TestUpdateSubtask(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()
	parent := withSubtasks(t, m, "draft")

	sub, err := m.UpdateSubtask(ctx, parent.ID, 1, model.SubtaskUpdate{Title: ptr("final")}, "base")
	if err != nil {
		t.Fatalf("UpdateSubtask: %v", err)
	}
	if sub.Title != "final" || sub.Status != model.StatusPending {
		t.Errorf("unexpected subtask %+v", sub)
	}

	sub, err = m.UpdateSubtaskStatus(ctx, parent.ID, 1, model.StatusInProgress, "")
	if err != nil {
		t.Fatalf("UpdateSubtaskStatus: %v", err)
	}
	if sub.Status != model.StatusInProgress || sub.Title != "final" {
		t.Errorf("unexpected subtask %+v", sub)
	}

	if _, err := m.UpdateSubtask(ctx, parent.ID, 9, model.SubtaskUpdate{Title: ptr("x")}, ""); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("missing subtask: expected ErrNotFound, got %v", err)
	}
	if _, err := m.UpdateSubtaskStatus(ctx, parent.ID, 1, model.Status("nope"), ""); !errors.Is(err, tasks.ErrInvalid) {
		t.Errorf("bad status: expected ErrInvalid, got %v", err)
	}
}

func TestDeleteSubtaskResequences(t *testing.T) {
	m := testutil.NewTestManager(t)
	ctx := t.Context()
	parent := withSubtasks(t, m, "a", "b", "c", "d")

	ok, err := m.DeleteSubtask(ctx, parent.ID, 2, "")
	if err != nil || !ok {
		t.Fatalf("DeleteSubtask: ok=%v err=%v", ok, err)
	}
	if got := subtaskTitles(t, m, parent.ID); !equal(got, []string{"a", "c", "d"}) {
		t.Errorf("unexpected subtasks %v", got)
	}

	ok, err = m.DeleteSubtask(ctx, parent.ID, 2, "")
	if err != nil || ok {
		t.Errorf("deleting twice: ok=%v err=%v", ok, err)
	}
	ok, err = m.DeleteSubtask(ctx, 77, 1, "")
	if err != nil || ok {
		t.Errorf("missing parent: ok=%v err=%v", ok, err)
	}
}

func TestReorderSubtasks(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"down", 0, 2, []string{"b", "c", "a", "d"}},
		{"up", 3, 0, []string{"d", "a", "b", "c"}},
		{"same", 1, 1, []string{"a", "b", "c", "d"}},
		{"adjacent", 1, 2, []string{"a", "c", "b", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.NewTestManager(t)
			parent := withSubtasks(t, m, "a", "b", "c", "d")

			subs, err := m.ReorderSubtasks(t.Context(), parent.ID, tt.from, tt.to, "base")
			if err != nil {
				t.Fatalf("ReorderSubtasks: %v", err)
			}
			returned := make([]string, len(subs))
			for i, st := range subs {
				returned[i] = st.Title
			}
			if !equal(returned, tt.want) {
				t.Errorf("returned %v, want %v", returned, tt.want)
			}
			if got := subtaskTitles(t, m, parent.ID); !equal(got, tt.want) {
				t.Errorf("persisted %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReorderSubtasksRejectsOutOfRange(t *testing.T) {
	m := testutil.NewTestManager(t)
	parent := withSubtasks(t, m, "a", "b")

	for _, pos := range [][2]int{{-1, 0}, {0, 2}, {2, 0}} {
		if _, err := m.ReorderSubtasks(t.Context(), parent.ID, pos[0], pos[1], ""); !errors.Is(err, tasks.ErrNotFound) {
			t.Errorf("move %v: expected not-found semantics, got %v", pos, err)
		}
	}
	if got := subtaskTitles(t, m, parent.ID); !equal(got, []string{"a", "b"}) {
		t.Errorf("rejected move changed order: %v", got)
	}
}

package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/tagname"
	"github.com/nhle/pulse/internal/tasks"
	"github.com/nhle/pulse/internal/ui/form"
)

// actionResultMsg is sent after any mutation. The board reloads on
// receipt and the note is shown in the status bar.
type actionResultMsg struct {
	note string
	err  error

	// switchTag, when set, makes the board jump to that tag.
	switchTag string

	// subtask, when >= 0, moves the subtask cursor.
	subtask int
}

func result(note string, err error) actionResultMsg {
	return actionResultMsg{note: note, err: err, subtask: -1}
}

// applyStatus sets a task status, optionally cascading to subtasks.
func (m *Model) applyStatus(t model.Task, status model.Status, cascade bool) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		_, err := mgr.UpdateTaskStatus(context.Background(), t.ID, status, t.Tag,
			model.StatusOptions{CompleteSubtasks: cascade})
		return result(fmt.Sprintf("Task #%d -> %s", t.ID, status.Label()), err)
	}
}

// cycleStatus advances the task status. Completing a task with open
// subtasks asks for confirmation first.
func (m *Model) cycleStatus(t model.Task) tea.Cmd {
	next := t.Status.Next()
	if next == model.StatusDone {
		done, total := t.SubtaskProgress()
		if open := total - done; open > 0 {
			m.view = ViewForm
			return m.form.StartConfirm(form.KindConfirmComplete,
				form.Target{TaskID: t.ID, Tag: t.Tag},
				fmt.Sprintf("Task #%d has %d open subtasks. Mark them done too?", t.ID, open))
		}
	}
	return m.applyStatus(t, next, false)
}

func (m *Model) cycleSubtaskStatus(t model.Task, st model.Subtask, pos int) tea.Cmd {
	mgr := m.manager
	next := st.Status.Next()
	return func() tea.Msg {
		_, err := mgr.UpdateSubtaskStatus(context.Background(), t.ID, st.ID, next, t.Tag)
		r := result(fmt.Sprintf("Subtask #%d -> %s", st.ID, next.Label()), err)
		r.subtask = pos
		return r
	}
}

func (m *Model) moveSubtask(t model.Task, pos, delta int) tea.Cmd {
	to := pos + delta
	if to < 0 || to >= len(t.Subtasks) {
		return nil
	}
	mgr := m.manager
	return func() tea.Msg {
		_, err := mgr.ReorderSubtasks(context.Background(), t.ID, pos, to, t.Tag)
		r := result(fmt.Sprintf("Moved subtask to position %d", to+1), err)
		if err == nil {
			r.subtask = to
		}
		return r
	}
}

func (m *Model) deleteSubtask(t model.Task, st model.Subtask, pos int) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		ok, err := mgr.DeleteSubtask(context.Background(), t.ID, st.ID, t.Tag)
		note := fmt.Sprintf("Deleted subtask #%d", st.ID)
		if err == nil && !ok {
			note = "Subtask not found"
		}
		r := result(note, err)
		r.subtask = max(0, pos-1)
		return r
	}
}

// submit applies a completed form.
func (m *Model) submit(msg form.SubmittedMsg) tea.Cmd {
	mgr := m.manager
	target := msg.Target

	switch msg.Kind {
	case form.KindNewTask:
		return func() tea.Msg {
			t, err := mgr.CreateTask(context.Background(), msg.Title, msg.Description, target.Tag)
			if err != nil {
				return result("", err)
			}
			return result(fmt.Sprintf("Created #%d", t.ID), nil)
		}

	case form.KindEditTitle:
		return func() tea.Msg {
			_, err := mgr.UpdateTaskIn(context.Background(), target.TaskID, target.Tag, model.TaskUpdate{Title: &msg.Title})
			return result(fmt.Sprintf("Updated #%d", target.TaskID), err)
		}

	case form.KindEditDescription:
		return func() tea.Msg {
			_, err := mgr.UpdateTaskIn(context.Background(), target.TaskID, target.Tag, model.TaskUpdate{Description: &msg.Description})
			return result(fmt.Sprintf("Saved description for #%d", target.TaskID), err)
		}

	case form.KindNewSubtask:
		return func() tea.Msg {
			st, err := mgr.AddSubtask(context.Background(), target.TaskID, msg.Title, target.Tag)
			if err != nil {
				return result("", err)
			}
			r := result(fmt.Sprintf("Added subtask #%d", st.ID), nil)
			r.subtask = st.Order - 1
			return r
		}

	case form.KindNewTag:
		return func() tea.Msg {
			tag, ok := tagname.Canonical(msg.Title)
			if !ok {
				return result("Invalid tag name", nil)
			}
			var desc *string
			if msg.Description != "" {
				desc = &msg.Description
			}
			if err := mgr.CreateTag(context.Background(), tag, desc); err != nil {
				return result("", err)
			}
			r := result(fmt.Sprintf("Switched to tag %q", tag), nil)
			r.switchTag = tag
			return r
		}

	case form.KindConfirmDelete:
		if !msg.Confirmed {
			return nil
		}
		return func() tea.Msg {
			ok, err := mgr.DeleteTask(context.Background(), target.TaskID, target.Tag)
			if err == nil && !ok {
				return result("Task not found", nil)
			}
			return result(fmt.Sprintf("Deleted #%d", target.TaskID), err)
		}

	case form.KindConfirmComplete:
		if !msg.Confirmed {
			return nil
		}
		return func() tea.Msg {
			_, err := mgr.UpdateTaskStatus(context.Background(), target.TaskID, model.StatusDone, target.Tag,
				model.StatusOptions{CompleteSubtasks: true})
			return result(fmt.Sprintf("Task #%d -> %s", target.TaskID, model.StatusDone.Label()), err)
		}
	}
	return nil
}

// describeError turns a manager error into a status bar message.
func describeError(err error) string {
	switch {
	case errors.Is(err, tasks.ErrInvalid):
		return "Invalid input"
	case errors.Is(err, tasks.ErrNotFound):
		return "Not found"
	default:
		return "Error: " + err.Error()
	}
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nhle/pulse/internal/model"
)

func subtaskIndex(task *model.Task, id int) int {
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == id {
			return i
		}
	}
	return -1
}

// sortSubtasks orders the slice by Order, keeping ties stable.
func sortSubtasks(subs []model.Subtask) {
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Order < subs[j].Order
	})
}

// AddSubtask appends a PENDING subtask to task parentID. The new id is
// count+1, or one past the highest id when that is already taken.
func (m *Manager) AddSubtask(ctx context.Context, parentID int, title, tag string) (*model.Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("subtask title: %w", ErrInvalid)
	}

	loc, err := m.locate(ctx, parentID, tag)
	if err != nil {
		return nil, err
	}
	task := loc.task()

	id := len(task.Subtasks) + 1
	if subtaskIndex(task, id) >= 0 {
		for _, st := range task.Subtasks {
			if st.ID >= id {
				id = st.ID + 1
			}
		}
	}

	now := m.now()
	sub := model.Subtask{
		ID:        id,
		Title:     title,
		Status:    model.StatusPending,
		Order:     len(task.Subtasks) + 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	task.Subtasks = append(task.Subtasks, sub)
	task.UpdatedAt = now

	if err := m.save(ctx, loc.tag, loc.shard); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubtask applies u to one subtask and refreshes the parent's
// UpdatedAt in the same save.
func (m *Manager) UpdateSubtask(ctx context.Context, parentID, subtaskID int, u model.SubtaskUpdate, tag string) (*model.Subtask, error) {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return nil, fmt.Errorf("subtask title: %w", ErrInvalid)
	}
	if u.Status != nil && !u.Status.Valid() {
		return nil, fmt.Errorf("status %q: %w", *u.Status, ErrInvalid)
	}

	loc, err := m.locate(ctx, parentID, tag)
	if err != nil {
		return nil, err
	}
	task := loc.task()
	i := subtaskIndex(task, subtaskID)
	if i < 0 {
		return nil, fmt.Errorf("subtask %d.%d: %w", parentID, subtaskID, ErrNotFound)
	}

	now := m.now()
	sub := &task.Subtasks[i]
	if u.Title != nil {
		sub.Title = strings.TrimSpace(*u.Title)
	}
	if u.Status != nil {
		sub.Status = *u.Status
	}
	sub.UpdatedAt = now
	task.UpdatedAt = now

	if err := m.save(ctx, loc.tag, loc.shard); err != nil {
		return nil, err
	}
	out := *sub
	return &out, nil
}

// UpdateSubtaskStatus is UpdateSubtask with only the status set.
func (m *Manager) UpdateSubtaskStatus(ctx context.Context, parentID, subtaskID int, status model.Status, tag string) (*model.Subtask, error) {
	return m.UpdateSubtask(ctx, parentID, subtaskID, model.SubtaskUpdate{Status: &status}, tag)
}

// DeleteSubtask removes one subtask and renumbers the rest 1..N. It reports
// false when the parent or subtask does not exist.
func (m *Manager) DeleteSubtask(ctx context.Context, parentID, subtaskID int, tag string) (bool, error) {
	loc, err := m.locate(ctx, parentID, tag)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	task := loc.task()
	i := subtaskIndex(task, subtaskID)
	if i < 0 {
		return false, nil
	}

	task.Subtasks = append(task.Subtasks[:i], task.Subtasks[i+1:]...)
	sortSubtasks(task.Subtasks)
	for j := range task.Subtasks {
		task.Subtasks[j].Order = j + 1
	}
	task.UpdatedAt = m.now()

	if err := m.save(ctx, loc.tag, loc.shard); err != nil {
		return false, err
	}
	return true, nil
}

// ReorderSubtasks moves the subtask at position from to position to, both
// indexes into the order-sorted list. Out-of-range positions are rejected.
func (m *Manager) ReorderSubtasks(ctx context.Context, parentID, from, to int, tag string) ([]model.Subtask, error) {
	loc, err := m.locate(ctx, parentID, tag)
	if err != nil {
		return nil, err
	}
	task := loc.task()

	n := len(task.Subtasks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, fmt.Errorf("subtask position %d -> %d of %d: %w", from, to, n, ErrInvalid)
	}

	subs := make([]model.Subtask, n)
	copy(subs, task.Subtasks)
	sortSubtasks(subs)

	moved := subs[from]
	subs = append(subs[:from], subs[from+1:]...)
	subs = append(subs[:to], append([]model.Subtask{moved}, subs[to:]...)...)

	now := m.now()
	for i := range subs {
		subs[i].Order = i + 1
		subs[i].UpdatedAt = now
	}
	task.Subtasks = subs
	task.UpdatedAt = now

	if err := m.save(ctx, loc.tag, loc.shard); err != nil {
		return nil, err
	}

	out := make([]model.Subtask, n)
	copy(out, subs)
	return out, nil
}

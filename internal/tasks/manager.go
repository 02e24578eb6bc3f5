// Package tasks is the domain layer shared by every front end. A Manager
// loads the shards an operation needs, mutates them in memory and saves
// them back; it keeps no state between calls.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/store"
	"github.com/nhle/pulse/internal/tagname"
)

var (
	// ErrNotFound is returned when a task, subtask or tag does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalid is returned for rejected input such as an empty title or a
	// tag that normalises to nothing. It matches ErrNotFound under errors.Is
	// so callers that only handle the lookup case still treat it as a miss.
	ErrInvalid = fmt.Errorf("invalid input: %w", ErrNotFound)
)

// Manager implements task, subtask and tag operations on top of a shard
// store.
type Manager struct {
	store      store.ShardStore
	journal    *store.Journal
	logger     *slog.Logger
	clock      func() time.Time
	defaultTag string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithDefaultTag sets the tag used when a caller passes no tag or one that
// normalises to nothing.
func WithDefaultTag(tag string) Option {
	return func(m *Manager) {
		if canon, ok := tagname.Canonical(tag); ok {
			m.defaultTag = canon
		}
	}
}

// New returns a Manager backed by s. It does not replay the move journal;
// use Open for that.
func New(s store.ShardStore, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Manager{
		store:      s,
		journal:    store.NewJournal(s.Dir(), logger),
		logger:     logger,
		clock:      func() time.Time { return time.Now().UTC() },
		defaultTag: tagname.Default,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open returns a Manager and completes any tag move interrupted by a
// previous process.
func Open(ctx context.Context, s store.ShardStore, logger *slog.Logger, opts ...Option) (*Manager, error) {
	m := New(s, logger, opts...)
	if err := m.Recover(ctx); err != nil {
		return nil, fmt.Errorf("recovering tag moves: %w", err)
	}
	return m, nil
}

// Dir returns the absolute storage directory.
func (m *Manager) Dir() string {
	return m.store.Dir()
}

// DefaultTag returns the tag used when none is given.
func (m *Manager) DefaultTag() string {
	return m.defaultTag
}

func (m *Manager) now() time.Time {
	return m.clock()
}

// location is a task resolved to the shard holding it.
type location struct {
	tag   string
	shard *model.Shard
	index int
}

func (l location) task() *model.Task {
	return &l.shard.Tasks[l.index]
}

// locate finds task id. With a tag hint the lookup is confined to that
// shard; without one the first match across all shards wins.
func (m *Manager) locate(ctx context.Context, id int, tag string) (location, error) {
	if tag == "" {
		found, err := store.FindTaskAnyTag(ctx, m.store, id)
		if err != nil {
			return location{}, err
		}
		if !found.OK {
			return location{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
		tag = found.Tag
	} else {
		canon, ok := tagname.Canonical(tag)
		if !ok {
			return location{}, fmt.Errorf("tag %q: %w", tag, ErrInvalid)
		}
		tag = canon
	}

	shard, err := m.store.Load(ctx, tag)
	if err != nil {
		return location{}, fmt.Errorf("loading shard %s: %w", tag, err)
	}
	i := shard.IndexOf(id)
	if i < 0 {
		return location{}, fmt.Errorf("task %d in %s: %w", id, tag, ErrNotFound)
	}
	return location{tag: tag, shard: shard, index: i}, nil
}

func (m *Manager) save(ctx context.Context, tag string, shard *model.Shard) error {
	if err := m.store.Save(ctx, tag, shard); err != nil {
		return fmt.Errorf("saving shard %s: %w", tag, err)
	}
	return nil
}

// CreateTask appends a new PENDING task to the shard for tag. A tag that
// normalises to nothing falls back to the default tag.
func (m *Manager) CreateTask(ctx context.Context, title, description, tag string) (*model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("task title: %w", ErrInvalid)
	}

	canon, ok := tagname.Canonical(tag)
	if !ok {
		canon = m.defaultTag
	}

	shard, err := m.store.Load(ctx, canon)
	if err != nil {
		return nil, fmt.Errorf("loading shard %s: %w", canon, err)
	}

	now := m.now()
	task := model.Task{
		ID:          shard.NextID,
		Title:       title,
		Description: description,
		Status:      model.StatusPending,
		Tag:         canon,
		Order:       len(shard.Tasks) + 1,
		Subtasks:    []model.Subtask{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	shard.Tasks = append(shard.Tasks, task)
	shard.NextID++

	if err := m.save(ctx, canon, shard); err != nil {
		return nil, err
	}
	m.logger.Debug("created task", slog.Int("id", task.ID), slog.String("tag", canon))
	return &task, nil
}

// UpdateTask applies u to task id, looked up across all shards. Changing
// the tag moves the task to the end of the destination shard.
func (m *Manager) UpdateTask(ctx context.Context, id int, u model.TaskUpdate) (*model.Task, error) {
	return m.UpdateTaskIn(ctx, id, "", u)
}

// UpdateTaskIn is UpdateTask confined to the shard for tag. An empty tag
// searches all shards.
func (m *Manager) UpdateTaskIn(ctx context.Context, id int, tag string, u model.TaskUpdate) (*model.Task, error) {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return nil, fmt.Errorf("task title: %w", ErrInvalid)
	}
	var newTag string
	if u.Tag != nil {
		canon, ok := tagname.Canonical(*u.Tag)
		if !ok {
			return nil, fmt.Errorf("tag %q: %w", *u.Tag, ErrInvalid)
		}
		newTag = canon
	}

	loc, err := m.locate(ctx, id, tag)
	if err != nil {
		return nil, err
	}

	task := loc.task().Clone()
	if u.Title != nil {
		task.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		task.Description = *u.Description
	}
	task.UpdatedAt = m.now()

	if newTag != "" && newTag != loc.tag {
		return m.moveTask(ctx, loc, task, newTag)
	}

	loc.shard.Tasks[loc.index] = task
	if err := m.save(ctx, loc.tag, loc.shard); err != nil {
		return nil, err
	}
	return &task, nil
}

// moveTask transfers task from the shard at src to dest. The move is
// journaled first so an interruption between the two saves can be
// completed by Recover.
func (m *Manager) moveTask(ctx context.Context, src location, task model.Task, dest string) (*model.Task, error) {
	dst, err := m.store.Load(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("loading shard %s: %w", dest, err)
	}

	sourceID := task.ID
	task.Tag = dest
	task.Order = len(dst.Tasks) + 1
	if dst.IndexOf(task.ID) >= 0 {
		task.ID = dst.NextID
	}
	if dst.NextID <= task.ID {
		dst.NextID = task.ID + 1
	}

	mv, err := m.journal.Begin(store.Move{
		SourceID:  sourceID,
		Task:      task,
		From:      src.tag,
		To:        dest,
		CreatedAt: task.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("journaling move of task %d: %w", sourceID, err)
	}

	src.shard.Tasks = append(src.shard.Tasks[:src.index], src.shard.Tasks[src.index+1:]...)
	if err := m.save(ctx, src.tag, src.shard); err != nil {
		// Nothing was written, so the move must not be replayed.
		if cerr := m.journal.Commit(mv.ID); cerr != nil {
			m.logger.Warn("discarding move entry", slog.String("move", mv.ID), slog.Any("err", cerr))
		}
		return nil, err
	}
	dst.Tasks = append(dst.Tasks, task)
	if err := m.save(ctx, dest, dst); err != nil {
		// The journal entry stays behind for Recover.
		return nil, err
	}

	if err := m.journal.Commit(mv.ID); err != nil {
		m.logger.Warn("leaving completed move in journal", slog.String("move", mv.ID), slog.Any("err", err))
	}
	m.logger.Info("moved task",
		slog.Int("from_id", sourceID), slog.String("from", src.tag),
		slog.Int("to_id", task.ID), slog.String("to", dest))
	return &task, nil
}

// Recover completes every journaled move: the task is removed from the
// source shard if still there and added to the destination if missing.
func (m *Manager) Recover(ctx context.Context) error {
	moves, err := m.journal.Pending()
	if err != nil {
		return err
	}

	for _, mv := range moves {
		if !tagname.IsValid(mv.From) || !tagname.IsValid(mv.To) {
			m.logger.Warn("dropping journal entry with bad tags", slog.String("move", mv.ID))
			if err := m.journal.Commit(mv.ID); err != nil {
				return err
			}
			continue
		}

		src, err := m.store.Load(ctx, mv.From)
		if err != nil {
			return fmt.Errorf("loading shard %s: %w", mv.From, err)
		}
		if i := src.IndexOf(mv.SourceID); i >= 0 {
			src.Tasks = append(src.Tasks[:i], src.Tasks[i+1:]...)
			if err := m.save(ctx, mv.From, src); err != nil {
				return err
			}
		}

		dst, err := m.store.Load(ctx, mv.To)
		if err != nil {
			return fmt.Errorf("loading shard %s: %w", mv.To, err)
		}
		placed := false
		task := mv.Task
		if i := dst.IndexOf(task.ID); i >= 0 {
			placed = dst.Tasks[i].CreatedAt.Equal(task.CreatedAt)
			if !placed {
				// The id was taken in the destination after the move began.
				task.ID = dst.NextID
			}
		}
		if !placed {
			task.Tag = mv.To
			task.Order = len(dst.Tasks) + 1
			dst.Tasks = append(dst.Tasks, task)
			if dst.NextID <= task.ID {
				dst.NextID = task.ID + 1
			}
			if err := m.save(ctx, mv.To, dst); err != nil {
				return err
			}
		}

		if err := m.journal.Commit(mv.ID); err != nil {
			return err
		}
		m.logger.Info("recovered interrupted move",
			slog.String("move", mv.ID), slog.String("from", mv.From), slog.String("to", mv.To))
	}
	return nil
}

// UpdateTaskStatus sets the status of task id. An empty tag searches all
// shards. Subtasks are only forced to DONE when opts.CompleteSubtasks is set.
func (m *Manager) UpdateTaskStatus(ctx context.Context, id int, status model.Status, tag string, opts model.StatusOptions) (*model.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, ErrInvalid)
	}

	loc, err := m.locate(ctx, id, tag)
	if err != nil {
		return nil, err
	}

	now := m.now()
	task := loc.task()
	if opts.CompleteSubtasks {
		for i := range task.Subtasks {
			task.Subtasks[i].Status = model.StatusDone
			task.Subtasks[i].UpdatedAt = now
		}
	}
	task.Status = status
	task.UpdatedAt = now

	if err := m.save(ctx, loc.tag, loc.shard); err != nil {
		return nil, err
	}
	out := task.Clone()
	return &out, nil
}

// ListTasks returns tasks sorted by order. An empty tag aggregates every
// shard and an empty status disables filtering. Orders from different
// shards are not comparable, so multi-tag callers should group by tag.
func (m *Manager) ListTasks(ctx context.Context, tag string, status model.Status) ([]model.Task, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, ErrInvalid)
	}

	var tags []string
	if tag == "" {
		all, err := m.store.ListTags(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing tags: %w", err)
		}
		tags = all
	} else {
		canon, ok := tagname.Canonical(tag)
		if !ok {
			return []model.Task{}, nil
		}
		tags = []string{canon}
	}

	result := []model.Task{}
	for _, t := range tags {
		shard, err := m.store.Load(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("loading shard %s: %w", t, err)
		}
		for _, task := range shard.Tasks {
			if status != "" && task.Status != status {
				continue
			}
			result = append(result, task)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Order < result[j].Order
	})
	return result, nil
}

// GetNextTask returns the first INPROGRESS task by order, else the first
// PENDING one. It returns ErrNotFound when nothing is open.
func (m *Manager) GetNextTask(ctx context.Context, tag string) (*model.Task, error) {
	list, err := m.ListTasks(ctx, tag, "")
	if err != nil {
		return nil, err
	}

	for _, want := range []model.Status{model.StatusInProgress, model.StatusPending} {
		for i := range list {
			if list[i].Status == want {
				return &list[i], nil
			}
		}
	}
	return nil, fmt.Errorf("next task: %w", ErrNotFound)
}

// GetTask returns task id, confined to tag when one is given.
func (m *Manager) GetTask(ctx context.Context, id int, tag string) (*model.Task, error) {
	loc, err := m.locate(ctx, id, tag)
	if err != nil {
		return nil, err
	}
	task := loc.task().Clone()
	return &task, nil
}

// DeleteTask removes task id and its subtasks. Remaining task orders are
// left as they are. It reports false when the task does not exist.
func (m *Manager) DeleteTask(ctx context.Context, id int, tag string) (bool, error) {
	loc, err := m.locate(ctx, id, tag)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	loc.shard.Tasks = append(loc.shard.Tasks[:loc.index], loc.shard.Tasks[loc.index+1:]...)
	if err := m.save(ctx, loc.tag, loc.shard); err != nil {
		return false, err
	}
	m.logger.Debug("deleted task", slog.Int("id", id), slog.String("tag", loc.tag))
	return true, nil
}

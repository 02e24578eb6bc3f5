package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nhle/pulse/internal/model"
)

// ShardStore persists one shard per tag. It enforces no cross-shard
// invariants; that is the task manager's job.
type ShardStore interface {
	// Load returns the shard for tag. A missing or unreadable shard yields
	// an empty shard ({NextID: 1}) rather than an error.
	Load(ctx context.Context, tag string) (*model.Shard, error)

	// Save overwrites the whole shard, creating it if absent.
	Save(ctx context.Context, tag string, shard *model.Shard) error

	// ListTags enumerates the tags that currently have a shard. The order
	// is unspecified.
	ListTags(ctx context.Context) ([]string, error)

	// Exists reports whether a shard is present for tag.
	Exists(ctx context.Context, tag string) (bool, error)

	// DeleteShard removes the shard and every task in it.
	DeleteShard(ctx context.Context, tag string) error

	// Dir returns the absolute storage directory.
	Dir() string

	Close() error
}

// Found is the result of a cross-shard task lookup.
type Found struct {
	Task model.Task
	Tag  string
	OK   bool
}

// FindTaskAnyTag scans every shard and returns the first task with the
// given id. The scan order follows ListTags and is therefore not stable.
func FindTaskAnyTag(ctx context.Context, s ShardStore, id int) (Found, error) {
	tags, err := s.ListTags(ctx)
	if err != nil {
		return Found{}, fmt.Errorf("listing tags: %w", err)
	}

	for _, tag := range tags {
		shard, err := s.Load(ctx, tag)
		if err != nil {
			return Found{}, fmt.Errorf("loading shard %s: %w", tag, err)
		}
		if i := shard.IndexOf(id); i >= 0 {
			return Found{Task: shard.Tasks[i], Tag: tag, OK: true}, nil
		}
	}

	return Found{}, nil
}

// Open creates the storage directory under root and returns the shard
// store selected by cfg.
func Open(cfg model.StorageConfig, root string, logger *slog.Logger) (ShardStore, error) {
	dir, err := filepath.Abs(filepath.Join(root, cfg.DirName))
	if err != nil {
		return nil, fmt.Errorf("resolving storage dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir %s: %w", dir, err)
	}

	switch cfg.Backend {
	case "", model.BackendFile:
		return NewFileStore(dir, logger)
	case model.BackendSQLite:
		return NewSQLiteStore(dir, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// repairShard fills defaults a hand-edited or older file may lack so the
// shard invariants hold after Load.
func repairShard(tag string, shard *model.Shard) {
	if shard.Tasks == nil {
		shard.Tasks = []model.Task{}
	}
	if shard.NextID < 1 {
		shard.NextID = 1
	}
	if maxID := shard.MaxID(); shard.NextID <= maxID {
		shard.NextID = maxID + 1
	}
	for i := range shard.Tasks {
		shard.Tasks[i].Tag = tag
		if shard.Tasks[i].Status == "" {
			shard.Tasks[i].Status = model.StatusPending
		}
		if shard.Tasks[i].Subtasks == nil {
			shard.Tasks[i].Subtasks = []model.Subtask{}
		}
	}
}

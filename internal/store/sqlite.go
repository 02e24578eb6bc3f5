package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/tagname"
)

// sqliteFileName is the database file created inside the storage dir.
const sqliteFileName = "pulse.db"

// SQLiteStore implements ShardStore with one row per tag in a local
// SQLite database. The task list of a shard is stored as a JSON column so
// a save is still a whole-shard overwrite.
type SQLiteStore struct {
	db     *sqlx.DB
	dir    string
	logger *slog.Logger
}

// shardRow mirrors the shards table.
type shardRow struct {
	Tag         string    `db:"tag"`
	NextID      int       `db:"next_id"`
	Description string    `db:"description"`
	TasksJSON   string    `db:"tasks_json"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// NewSQLiteStore opens (or creates) the database in dir, enables WAL mode,
// and runs any pending schema migrations.
func NewSQLiteStore(dir string, logger *slog.Logger) (*SQLiteStore, error) {
	return openSQLite(filepath.Join(dir, sqliteFileName), dir, logger)
}

func openSQLite(dsn, dir string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection keeps :memory: databases shared across calls.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, dir: dir, logger: logger}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Dir returns the storage directory holding the database file.
func (s *SQLiteStore) Dir() string { return s.dir }

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Load returns the shard for tag. A missing row gives an empty shard; a
// row whose task JSON does not decode is logged and treated as empty.
func (s *SQLiteStore) Load(ctx context.Context, tag string) (*model.Shard, error) {
	if !tagname.IsValid(tag) {
		s.logger.Warn("refusing to load non-canonical tag", slog.String("tag", tag))
		return model.NewShard(), nil
	}

	var row shardRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM shards WHERE tag = ?", tag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.NewShard(), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("reading shard failed, starting empty",
			slog.String("tag", tag), slog.Any("err", err))
		return model.NewShard(), nil
	}

	shard := &model.Shard{NextID: row.NextID, Description: row.Description}
	if err := json.Unmarshal([]byte(row.TasksJSON), &shard.Tasks); err != nil {
		s.logger.Warn("corrupt shard, starting empty",
			slog.String("tag", tag), slog.Any("err", err))
		return model.NewShard(), nil
	}

	repairShard(tag, shard)
	return shard, nil
}

// Save inserts or replaces the row for tag.
func (s *SQLiteStore) Save(ctx context.Context, tag string, shard *model.Shard) error {
	if !tagname.IsValid(tag) {
		return fmt.Errorf("saving shard: invalid tag %q", tag)
	}

	tasks := shard.Tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshaling tasks for shard %s: %w", tag, err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shards (tag, next_id, description, tasks_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tag) DO UPDATE SET
			next_id = excluded.next_id,
			description = excluded.description,
			tasks_json = excluded.tasks_json,
			updated_at = excluded.updated_at`,
		tag, shard.NextID, shard.Description, string(tasksJSON), now, now,
	)
	if err != nil {
		return fmt.Errorf("saving shard %s: %w", tag, err)
	}
	return nil
}

// ListTags returns every tag with a row, ordered by name.
func (s *SQLiteStore) ListTags(ctx context.Context) ([]string, error) {
	tags := []string{}
	if err := s.db.SelectContext(ctx, &tags, "SELECT tag FROM shards ORDER BY tag"); err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	return tags, nil
}

// Exists reports whether a row is present for tag.
func (s *SQLiteStore) Exists(ctx context.Context, tag string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM shards WHERE tag = ?", tag)
	if err != nil {
		return false, fmt.Errorf("checking shard %s: %w", tag, err)
	}
	return count > 0, nil
}

// DeleteShard removes the row for tag.
func (s *SQLiteStore) DeleteShard(ctx context.Context, tag string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM shards WHERE tag = ?", tag); err != nil {
		return fmt.Errorf("deleting shard %s: %w", tag, err)
	}
	return nil
}

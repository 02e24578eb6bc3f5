package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nhle/pulse/internal/model"
)

// journalDirName is the hidden subdirectory of the storage dir that holds
// in-flight tag moves.
const journalDirName = ".journal"

// Move records a task being transferred between two shards. It is written
// before either shard is touched and removed once both saves succeed.
type Move struct {
	ID string `yaml:"id"`

	// SourceID is the task id in the source shard. Task carries the record
	// as it is placed in the destination, which may have a different id.
	SourceID  int        `yaml:"source_id"`
	Task      model.Task `yaml:"task"`
	From      string     `yaml:"from"`
	To        string     `yaml:"to"`
	CreatedAt time.Time  `yaml:"created_at"`
}

// Journal is a directory of pending moves, one YAML file each.
type Journal struct {
	dir    string
	logger *slog.Logger
}

// NewJournal returns the journal kept under storeDir.
func NewJournal(storeDir string, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Journal{dir: filepath.Join(storeDir, journalDirName), logger: logger}
}

func (j *Journal) path(id string) string {
	return filepath.Join(j.dir, id+".yml")
}

// Begin assigns the move an id and persists it.
func (j *Journal) Begin(m Move) (Move, error) {
	m.ID = uuid.New().String()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return Move{}, fmt.Errorf("creating journal dir %s: %w", j.dir, err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return Move{}, fmt.Errorf("encoding move %s: %w", m.ID, err)
	}

	tmp := j.path(m.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Move{}, fmt.Errorf("writing move %s: %w", m.ID, err)
	}
	if err := os.Rename(tmp, j.path(m.ID)); err != nil {
		os.Remove(tmp)
		return Move{}, fmt.Errorf("committing move %s: %w", m.ID, err)
	}
	return m, nil
}

// Commit removes a completed move.
func (j *Journal) Commit(id string) error {
	if err := os.Remove(j.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing move %s: %w", id, err)
	}
	return nil
}

// Pending returns every recorded move, oldest first. Entries that cannot
// be decoded are logged and skipped.
func (j *Journal) Pending() ([]Move, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading journal dir %s: %w", j.dir, err)
	}

	var moves []Move
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(j.dir, e.Name()))
		if err != nil {
			j.logger.Warn("reading journal entry", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		var m Move
		if err := yaml.Unmarshal(data, &m); err != nil || m.ID == "" {
			j.logger.Warn("skipping unreadable journal entry", slog.String("file", e.Name()))
			continue
		}
		moves = append(moves, m)
	}

	sort.SliceStable(moves, func(a, b int) bool {
		return moves[a].CreatedAt.Before(moves[b].CreatedAt)
	})
	return moves, nil
}

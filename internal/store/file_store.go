package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/tagname"
)

// shardExt is the file extension of a shard file.
const shardExt = ".yml"

// FileStore keeps each shard as a human-readable YAML file named
// <tag>.yml inside the storage directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore returns a FileStore rooted at dir, creating dir if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating shard dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string { return s.dir }

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(tag string) string {
	return filepath.Join(s.dir, tag+shardExt)
}

// Load reads and decodes the shard for tag. Missing files and files that
// fail to decode both produce an empty shard; the latter is logged.
func (s *FileStore) Load(ctx context.Context, tag string) (*model.Shard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !tagname.IsValid(tag) {
		s.logger.Warn("refusing to load non-canonical tag", slog.String("tag", tag))
		return model.NewShard(), nil
	}

	data, err := os.ReadFile(s.path(tag))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("reading shard failed, starting empty",
				slog.String("tag", tag), slog.Any("err", err))
		}
		return model.NewShard(), nil
	}

	shard := model.NewShard()
	if err := yaml.Unmarshal(data, shard); err != nil {
		s.logger.Warn("corrupt shard, starting empty",
			slog.String("tag", tag), slog.Any("err", err))
		return model.NewShard(), nil
	}

	repairShard(tag, shard)
	return shard, nil
}

// Save encodes shard and atomically replaces the file for tag: the data
// is written to a temp file in the same directory and renamed over the
// target, so a failed write leaves the previous version in place.
func (s *FileStore) Save(ctx context.Context, tag string, shard *model.Shard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !tagname.IsValid(tag) {
		return fmt.Errorf("saving shard: invalid tag %q", tag)
	}

	data, err := yaml.Marshal(shard)
	if err != nil {
		return fmt.Errorf("encoding shard %s: %w", tag, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+tag+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for shard %s: %w", tag, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing shard %s: %w", tag, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing shard %s: %w", tag, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing shard %s: %w", tag, err)
	}
	if err := os.Rename(tmpName, s.path(tag)); err != nil {
		return fmt.Errorf("replacing shard %s: %w", tag, err)
	}
	return nil
}

// ListTags returns the tag of every *.yml file whose name is a canonical
// tag. Hidden files, temp files and subdirectories are skipped.
func (s *FileStore) ListTags(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("reading shard dir %s: %w", s.dir, err)
	}

	tags := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, shardExt) {
			continue
		}
		tag := strings.TrimSuffix(name, shardExt)
		if !tagname.IsValid(tag) {
			continue
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Exists reports whether a shard file is present for tag.
func (s *FileStore) Exists(ctx context.Context, tag string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !tagname.IsValid(tag) {
		return false, nil
	}
	_, err := os.Stat(s.path(tag))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking shard %s: %w", tag, err)
}

// DeleteShard removes the shard file for tag. Deleting a missing shard is
// not an error.
func (s *FileStore) DeleteShard(ctx context.Context, tag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !tagname.IsValid(tag) {
		return fmt.Errorf("deleting shard: invalid tag %q", tag)
	}
	if err := os.Remove(s.path(tag)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting shard %s: %w", tag, err)
	}
	return nil
}

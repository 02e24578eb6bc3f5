package testutil

import (
	"testing"
	"time"

	"github.com/nhle/pulse/internal/store"
	"github.com/nhle/pulse/internal/tasks"
)

// NewTestStore creates a FileStore rooted in a fresh temp directory.
func NewTestStore(t *testing.T) *store.FileStore {
	t.Helper()

	s, err := store.NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	return s
}

// NewTestSQLiteStore creates a SQLiteStore with all migrations applied in a
// fresh temp directory. It automatically closes the store when the test
// completes.
func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("creating test sqlite store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Clock returns a deterministic time source that advances one second per
// call, starting at start.
func Clock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(time.Second)
		return t
	}
}

// NewTestManager returns a Manager over a temp-dir FileStore with a
// deterministic clock.
func NewTestManager(t *testing.T) *tasks.Manager {
	t.Helper()

	clock := Clock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))
	m, err := tasks.Open(t.Context(), NewTestStore(t), nil, tasks.WithClock(clock))
	if err != nil {
		t.Fatalf("opening test manager: %v", err)
	}
	return m
}

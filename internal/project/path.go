// Package project locates the directory a pulse store belongs to.
package project

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ResolveRoot picks the project root. An explicit override wins (with a
// leading ~ expanded). Otherwise the nearest ancestor of start holding a
// .git entry is used, falling back to start itself.
func ResolveRoot(override, start string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if override != "" {
		expanded, err := expandHome(override)
		if err != nil {
			return "", err
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return "", fmt.Errorf("resolving working dir %s: %w", override, err)
		}
		return abs, nil
	}

	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		start = wd
	}
	start, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving start dir %s: %w", start, err)
	}

	if root, ok := findGitRoot(start); ok {
		return root, nil
	}

	logger.Warn("no .git folder found, using start directory as project root; pass --working-dir to choose another",
		slog.String("dir", start))
	return start, nil
}

func findGitRoot(dir string) (string, bool) {
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

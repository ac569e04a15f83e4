// Package workspace locates the .matcha directory that anchors all
// on-disk state (config, suites, user matchers, history, logs).
package workspace

import (
	"os"
	"path/filepath"

	"matcha/internal/config"
)

// DotDir is the workspace marker directory.
const DotDir = ".matcha"

// Find walks up from start looking for a .matcha directory and
// returns the directory containing it. An empty start means the
// current working directory. When no marker exists the start itself
// is the workspace; defaults apply and nothing is created.
func Find(start string) (string, error) {
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		start = cwd
	}
	start, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	dir := start
	for {
		if stat, err := os.Stat(filepath.Join(dir, DotDir)); err == nil && stat.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return start, nil
}

// Dir returns the .matcha directory of a workspace.
func Dir(ws string) string {
	return filepath.Join(ws, DotDir)
}

// LogsDir returns the debug log directory of a workspace.
func LogsDir(ws string) string {
	return filepath.Join(ws, DotDir, "logs")
}

// SuitesDir returns the configured suite directory, resolved against
// the workspace root unless it is already absolute.
func SuitesDir(ws string, cfg *config.Config) string {
	dir := cfg.Suites.Dir
	if dir == "" {
		dir = "suites"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(ws, dir)
}

// MatchersDir returns the configured user matcher directory, resolved
// against .matcha/ unless it is already absolute.
func MatchersDir(ws string, cfg *config.Config) string {
	dir := cfg.Matchers.UserDir
	if dir == "" {
		dir = "matchers"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(ws, DotDir, dir)
}

// HistoryPath returns the configured history database path, resolved
// against .matcha/ unless it is already absolute.
func HistoryPath(ws string, cfg *config.Config) string {
	path := cfg.History.Path
	if path == "" {
		path = "history.db"
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(ws, DotDir, path)
}

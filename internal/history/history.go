// Package history persists completed runs to a SQLite database under
// .matcha/. Recording is best-effort from the CLI: a failed write is
// logged and never fails the run that produced it.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"matcha/internal/logging"
	"matcha/internal/report"
	"matcha/internal/runner"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Store manages the run history database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// RunSummary is one row of `matcha history`.
type RunSummary struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Suites    int
	Cases     int
	Failures  int
}

// Open creates or opens a history store at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	logging.HistoryDebug("History store opened at %s", dbPath)
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// initSchema creates the database schema.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		suites INTEGER NOT NULL,
		cases INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		report TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUN OPERATIONS
// =============================================================================

// RecordRun stores a completed run. The full report JSON rides along
// so `history show` can re-render it later.
func (s *Store) RecordRun(run *runner.Run) error {
	if run == nil {
		return fmt.Errorf("history: nil run")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := report.MarshalRun(run)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, started_at, duration_ms, suites, cases, failures, report)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), run.Duration.Milliseconds(),
		len(run.Suites), run.TotalCases, run.Failures, string(doc))

	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}

	logging.History("Recorded run %s (%d cases, %d failures)", run.ID, run.TotalCases, run.Failures)
	return nil
}

// ListRuns returns run summaries, newest first. A non-positive limit
// returns everything.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	rows, err := s.db.Query(`
		SELECT id, started_at, duration_ms, suites, cases, failures
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var r RunSummary
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.StartedAt, &durationMs, &r.Suites, &r.Cases, &r.Failures); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		summaries = append(summaries, r)
	}
	return summaries, rows.Err()
}

// GetRun loads a stored run by ID.
func (s *Store) GetRun(id string) (*runner.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRow(`SELECT report FROM runs WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	return report.ParseRun([]byte(doc))
}

// Prune deletes all but the newest keep runs. A non-positive keep is
// a no-op, matching history.keep=0 meaning keep everything.
func (s *Store) Prune(keep int) error {
	if keep <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		logging.HistoryDebug("Pruned %d run(s), keeping %d", n, keep)
	}
	return nil
}

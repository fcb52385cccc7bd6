// Package manifest records, per source document, the content hash and the
// outcome of the last batch run so unchanged documents can be skipped.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Status is the outcome of processing one document
type Status string

const (
	StatusCleaned Status = "cleaned"
	StatusFailed  Status = "failed"
)

// Entry is the manifest row of one source document
type Entry struct {
	Path      string    `json:"path"`
	Hash      string    `json:"hash"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	RunID     string    `json:"run_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Run summarizes one batch run
type Run struct {
	ID         string    `json:"id"`
	Src        string    `json:"src"`
	Dst        string    `json:"dst"`
	Cleaned    int       `json:"cleaned"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store is a SQLite-backed manifest
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the manifest database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		run_id TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		src TEXT NOT NULL,
		dst TEXT NOT NULL,
		cleaned INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get returns the entry for path, or nil if the path was never processed
func (s *Store) Get(ctx context.Context, path string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT path, hash, status, error, run_id, updated_at
		FROM documents WHERE path = ?
	`, path)

	var entry Entry
	err := row.Scan(&entry.Path, &entry.Hash, &entry.Status, &entry.Error, &entry.RunID, &entry.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return &entry, nil
}

// Put inserts or replaces the entry for entry.Path
func (s *Store) Put(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Path == "" {
		return fmt.Errorf("entry path is required")
	}

	entry.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, hash, status, error, run_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			status = excluded.status,
			error = excluded.error,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at
	`, entry.Path, entry.Hash, string(entry.Status), entry.Error, entry.RunID, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put entry: %w", err)
	}

	return nil
}

// Failed lists the documents whose last run failed
func (s *Store) Failed(ctx context.Context) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, hash, status, error, run_id, updated_at
		FROM documents WHERE status = ?
		ORDER BY path
	`, string(StatusFailed))
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Path, &entry.Hash, &entry.Status, &entry.Error, &entry.RunID, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// StartRun records the start of a batch run
func (s *Store) StartRun(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, src, dst, started_at) VALUES (?, ?, ?, ?)
	`, run.ID, run.Src, run.Dst, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}

	return nil
}

// FinishRun stores the final counters of a run
func (s *Store) FinishRun(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.FinishedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET cleaned = ?, skipped = ?, failed = ?, finished_at = ?
		WHERE id = ?
	`, run.Cleaned, run.Skipped, run.Failed, run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}

	return nil
}

// Runs returns the most recent runs first
func (s *Store) Runs(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, src, dst, cleaned, skipped, failed, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.Src, &run.Dst, &run.Cleaned, &run.Skipped, &run.Failed, &run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

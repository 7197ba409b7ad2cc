// Package history keeps a SQLite journal of conversion outcomes.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"vid2audio/internal/converter"
)

const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	input_path  TEXT NOT NULL,
	output_path TEXT,
	status      TEXT NOT NULL,
	reason      TEXT,
	error       TEXT,
	duration_s  REAL,
	elapsed_ms  INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
`

// Entry is one journal row.
type Entry struct {
	ID        int64
	RunID     string
	Input     string
	Output    string
	Status    string
	Reason    string
	Error     string
	Duration  float64
	Elapsed   time.Duration
	CreatedAt time.Time
}

// Store records outcomes of one run. Each Store gets its own run ID.
type Store struct {
	db    *sql.DB
	path  string
	runID string
	now   func() time.Time
}

// Open creates or connects to the journal at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serialises writers inside the process; busy_timeout
	// covers a concurrent run against the same file.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, path: path, runID: uuid.NewString(), now: time.Now}, nil
}

// RunID identifies the run this store records.
func (s *Store) RunID() string {
	return s.runID
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one outcome to the journal.
func (s *Store) Record(ctx context.Context, out converter.Outcome) error {
	var errText string
	if out.Err != nil {
		errText = out.Err.Error()
	}
	var duration sql.NullFloat64
	if out.Duration.Known {
		duration = sql.NullFloat64{Float64: out.Duration.Seconds, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, input_path, output_path, status, reason, error, duration_s, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, out.Input, out.Output, out.Status.String(), out.Reason(), errText,
		duration, out.Elapsed.Milliseconds(), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", filepath.Base(out.Input), err)
	}
	return nil
}

// Recent returns up to limit rows, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, input_path, COALESCE(output_path, ''), status, COALESCE(reason, ''),
		        COALESCE(error, ''), duration_s, elapsed_ms, created_at
		 FROM outcomes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			duration  sql.NullFloat64
			elapsedMS int64
			created   string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Input, &e.Output, &e.Status, &e.Reason,
			&e.Error, &duration, &elapsedMS, &created); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if duration.Valid {
			e.Duration = duration.Float64
		}
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

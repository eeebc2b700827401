// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger appends one row per stage invocation to a SQLite history.
// The pipeline never reads it back to decide what to run; file names alone
// carry pipeline state.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is one recorded stage invocation.
type Entry struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Stage      string    `json:"stage" yaml:"stage"`
	Identifier string    `json:"identifier" yaml:"identifier"`
	Status     string    `json:"status" yaml:"status"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// Duration is the wall time of the invocation.
func (e Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Identifier string
	Stage      string
	Limit      int
}

// Ledger is the run history database. A nil *Ledger records nothing.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	l := &Ledger{db: db, now: time.Now}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			stage TEXT NOT NULL,
			identifier TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_identifier ON runs(identifier)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_stage ON runs(stage)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends e, assigning a run ID if it has none.
func (l *Ledger) Record(ctx context.Context, e Entry) (Entry, error) {
	if l == nil {
		return e, nil
	}
	if e.RunID == "" {
		e.RunID = uuid.NewString()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, stage, identifier, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Stage, e.Identifier, e.Status, e.Error,
		e.StartedAt.UTC().Format(time.RFC3339Nano), e.FinishedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return e, fmt.Errorf("recording %s run for %s: %w", e.Stage, e.Identifier, err)
	}
	return e, nil
}

// Track runs fn and records its outcome. fn's error is returned unchanged;
// a recording failure is returned only when fn succeeded.
func (l *Ledger) Track(ctx context.Context, stage, identifier string, fn func() error) error {
	if l == nil {
		return fn()
	}
	e := Entry{Stage: stage, Identifier: identifier, StartedAt: l.now()}
	runErr := fn()
	e.FinishedAt = l.now()
	e.Status = StatusOK
	if runErr != nil {
		e.Status = StatusFailed
		e.Error = runErr.Error()
	}
	// Record on a fresh context so a canceled stage is still logged.
	if _, err := l.Record(context.WithoutCancel(ctx), e); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// List returns recorded runs, newest first.
func (l *Ledger) List(ctx context.Context, f Filter) ([]Entry, error) {
	if l == nil {
		return nil, nil
	}
	var (
		where []string
		args  []any
	)
	if f.Identifier != "" {
		where = append(where, "identifier = ?")
		args = append(args, f.Identifier)
	}
	if f.Stage != "" {
		where = append(where, "stage = ?")
		args = append(args, f.Stage)
	}
	query := `SELECT run_id, stage, identifier, status, COALESCE(error, ''), started_at, finished_at FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			started, finished string
		)
		if err := rows.Scan(&e.RunID, &e.Stage, &e.Identifier, &e.Status, &e.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if e.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", started, err)
		}
		if e.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at %q: %w", finished, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentic-research/tmplcheck/internal/diag"
)

// ErrNotFound is returned when no run has been recorded for a module.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	module TEXT NOT NULL,
	path TEXT NOT NULL,
	started INTEGER NOT NULL,
	errors INTEGER NOT NULL DEFAULT 0,
	warnings INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_module ON runs(module, id);

CREATE TABLE IF NOT EXISTS diagnostics (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	seq INTEGER NOT NULL,
	severity TEXT NOT NULL,
	category TEXT,
	file TEXT,
	line INTEGER,
	col INTEGER,
	message TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
) WITHOUT ROWID;
CREATE INDEX IF NOT EXISTS idx_diagnostics_category ON diagnostics(category);
`

// Store records check runs and their diagnostics in SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin starts recording a run over one module. The returned Run is a
// diag.Sink; nothing is written until Finish.
func (s *Store) Begin(module, path string) *Run {
	return &Run{store: s, module: module, path: path, started: time.Now()}
}

// Run buffers the diagnostics of one check. It is not safe for concurrent
// use; concurrent checks each get their own Run.
type Run struct {
	store   *Store
	module  string
	path    string
	started time.Time
	diags   []diag.Diagnostic
}

// Report implements diag.Sink.
func (r *Run) Report(d diag.Diagnostic) {
	r.diags = append(r.diags, d)
}

// Finish writes the run and its diagnostics in one transaction and returns
// the run id.
func (r *Run) Finish() (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	errs, warns := 0, 0
	for _, d := range r.diags {
		if d.Severity == diag.SeverityError {
			errs++
		} else {
			warns++
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	res, err := tx.Exec(`INSERT INTO runs (module, path, started, errors, warnings) VALUES (?, ?, ?, ?, ?)`,
		r.module, r.path, r.started.UnixNano(), errs, warns)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO diagnostics (run_id, seq, severity, category, file, line, col, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, d := range r.diags {
		_, err := stmt.Exec(id, i, d.Severity.String(), string(d.Category),
			d.Location.File, d.Location.Line, d.Location.Column, d.Message)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert diagnostic %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	log.Printf("store: run %d for %s: %d errors, %d warnings", id, r.module, errs, warns)
	return id, nil
}

// RunSummary describes one recorded run.
type RunSummary struct {
	ID       int64
	Module   string
	Path     string
	Started  time.Time
	Errors   int
	Warnings int
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs() ([]RunSummary, error) {
	rows, err := s.db.Query(`SELECT id, module, path, started, errors, warnings FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var started int64
		if err := rows.Scan(&rs.ID, &rs.Module, &rs.Path, &started, &rs.Errors, &rs.Warnings); err != nil {
			return nil, err
		}
		rs.Started = time.Unix(0, started)
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Latest returns the diagnostics of the most recent run over module, in
// reporting order.
func (s *Store) Latest(module string) ([]diag.Diagnostic, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM runs WHERE module = ? ORDER BY id DESC LIMIT 1`, module).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("module %s: %w", module, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.Diagnostics(id)
}

// Diagnostics returns the diagnostics of run id.
func (s *Store) Diagnostics(id int64) ([]diag.Diagnostic, error) {
	rows, err := s.db.Query(`
		SELECT severity, category, file, line, col, message
		FROM diagnostics WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []diag.Diagnostic
	for rows.Next() {
		var d diag.Diagnostic
		var sev, cat string
		if err := rows.Scan(&sev, &cat, &d.Location.File, &d.Location.Line, &d.Location.Column, &d.Message); err != nil {
			return nil, err
		}
		d.Severity = diag.SeverityWarning
		if sev == diag.SeverityError.String() {
			d.Severity = diag.SeverityError
		}
		d.Category = diag.Category(cat)
		out = append(out, d)
	}
	return out, rows.Err()
}

var _ diag.Sink = (*Run)(nil)

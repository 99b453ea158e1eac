// Package history persists a record of past generation and promotion runs
// in a local SQLite database, so operators can ask what ran, when, against
// which inputs, and with what outcome.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/refdocs/internal/manifest"
	"git.home.luguber.info/inful/refdocs/internal/report"
)

// Run is one recorded pipeline run.
type Run struct {
	ID        int64
	RunID     string
	Kind      string // "generate" or "promote"
	Version   string
	GraphHash string
	Outcome   string
	Pages     int
	Warnings  int
	Started   time.Time
	Duration  time.Duration
	Details   map[string]any
}

// SQLiteStore records runs in SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the run-history database.
// Use ":memory:" for tests.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		version TEXT NOT NULL,
		graph_hash TEXT,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		details TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_version ON runs(version);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordGeneration stores the outcome of a generation run described by its
// manifest and report.
func (s *SQLiteStore) RecordGeneration(ctx context.Context, m *manifest.GenerationManifest, rep *report.Report) error {
	details := map[string]any{
		"config_hash": m.Inputs.ConfigHash,
		"skeletons":   m.Outputs.Skeletons,
	}
	return s.record(ctx, Run{
		RunID:     m.ID,
		Kind:      "generate",
		Version:   m.Version,
		GraphHash: m.Inputs.GraphHash,
		Outcome:   string(rep.Outcome()),
		Pages:     rep.PagesGenerated,
		Warnings:  rep.WarningCount(),
		Started:   rep.Start,
		Duration:  rep.End.Sub(rep.Start),
		Details:   details,
	})
}

// RecordPromotion stores the outcome of a promotion run.
func (s *SQLiteStore) RecordPromotion(ctx context.Context, runID, newTag string, rep *report.Report) error {
	return s.record(ctx, Run{
		RunID:    runID,
		Kind:     "promote",
		Version:  newTag,
		Outcome:  string(rep.Outcome()),
		Warnings: rep.WarningCount(),
		Started:  rep.Start,
		Duration: rep.End.Sub(rep.Start),
		Details:  map[string]any{"shells_converted": rep.ShellsConverted},
	})
}

func (s *SQLiteStore) record(ctx context.Context, r Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var detailsJSON []byte
	if r.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(r.Details)
		if err != nil {
			return fmt.Errorf("marshal run details: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, kind, version, graph_hash, outcome, pages, warnings, started, duration_ms, details) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.RunID, r.Kind, r.Version, r.GraphHash, r.Outcome, r.Pages, r.Warnings,
		r.Started.Unix(), r.Duration.Milliseconds(), detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ByVersion retrieves all recorded runs for a version, oldest first.
func (s *SQLiteStore) ByVersion(ctx context.Context, version string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, kind, version, graph_hash, outcome, pages, warnings, started, duration_ms, details FROM runs WHERE version = ? ORDER BY id",
		version,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return s.scanRuns(rows)
}

// Recent retrieves the most recent runs across all versions, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, kind, version, graph_hash, outcome, pages, warnings, started, duration_ms, details FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return s.scanRuns(rows)
}

func (s *SQLiteStore) scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var graphHash sql.NullString
		var startedUnix, durationMs int64
		var detailsJSON []byte

		err := rows.Scan(&r.ID, &r.RunID, &r.Kind, &r.Version, &graphHash,
			&r.Outcome, &r.Pages, &r.Warnings, &startedUnix, &durationMs, &detailsJSON)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		r.GraphHash = graphHash.String
		r.Started = time.Unix(startedUnix, 0)
		r.Duration = time.Duration(durationMs) * time.Millisecond

		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &r.Details); err != nil {
				return nil, fmt.Errorf("unmarshal run details: %w", err)
			}
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

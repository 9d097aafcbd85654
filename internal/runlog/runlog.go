// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog keeps a local SQLite journal of pipeline runs: one row
// per run plus every stage transition it went through. The journal is an
// operator tool; losing it never affects the store-side backlog.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/content-engine/pkg/types"
)

const dbFile = "runs.db"

// Journal records pipeline runs in a local SQLite database.
type Journal struct {
	db *sql.DB
}

// RunRecord is one journaled run.
type RunRecord struct {
	ID      int64
	Brief   string
	Stage   types.RunStage
	Title   string
	Error   string
	Started time.Time
	Updated time.Time
}

// Open opens or creates the run journal at dir/runs.db, creating the
// schema if it does not exist.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			brief TEXT NOT NULL,
			stage TEXT NOT NULL,
			title TEXT,
			error TEXT,
			started TEXT NOT NULL,
			updated TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transitions (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			stage TEXT NOT NULL,
			at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_run_id ON transitions(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Begin journals a new run in the planning stage and returns its
// identifier.
func (j *Journal) Begin(ctx context.Context, brief types.Brief) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (brief, stage, started, updated) VALUES (?, ?, ?, ?)`,
		brief.Text, string(types.StagePlanning), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("journaling run start: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	if err := j.recordTransition(ctx, id, types.StagePlanning, now); err != nil {
		return 0, err
	}
	return id, nil
}

// Advance moves a run to the given stage and journals the transition.
func (j *Journal) Advance(ctx context.Context, runID int64, stage types.RunStage) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := j.db.ExecContext(ctx,
		`UPDATE runs SET stage = ?, updated = ? WHERE id = ?`,
		string(stage), now, runID,
	); err != nil {
		return fmt.Errorf("journaling stage %s: %w", stage, err)
	}
	return j.recordTransition(ctx, runID, stage, now)
}

// Fail marks a run failed, recording the cause.
func (j *Journal) Fail(ctx context.Context, runID int64, cause error) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := j.db.ExecContext(ctx,
		`UPDATE runs SET stage = ?, error = ?, updated = ? WHERE id = ?`,
		string(types.StageFailed), cause.Error(), now, runID,
	); err != nil {
		return fmt.Errorf("journaling failure: %w", err)
	}
	return j.recordTransition(ctx, runID, types.StageFailed, now)
}

// SetTitle records the synthesized draft title on the run.
func (j *Journal) SetTitle(ctx context.Context, runID int64, title string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := j.db.ExecContext(ctx,
		`UPDATE runs SET title = ?, updated = ? WHERE id = ?`,
		title, now, runID,
	); err != nil {
		return fmt.Errorf("journaling title: %w", err)
	}
	return nil
}

func (j *Journal) recordTransition(ctx context.Context, runID int64, stage types.RunStage, at string) error {
	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO transitions (run_id, stage, at) VALUES (?, ?, ?)`,
		runID, string(stage), at,
	); err != nil {
		return fmt.Errorf("journaling transition: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, brief, stage, COALESCE(title, ''), COALESCE(error, ''), started, updated
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var stage, started, updated string
		if err := rows.Scan(&rec.ID, &rec.Brief, &stage, &rec.Title, &rec.Error, &started, &updated); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.Stage = types.RunStage(stage)
		rec.Started, _ = time.Parse(time.RFC3339Nano, started)
		rec.Updated, _ = time.Parse(time.RFC3339Nano, updated)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Transitions returns a run's stage history in order.
func (j *Journal) Transitions(ctx context.Context, runID int64) ([]types.RunStage, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT stage FROM transitions WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying transitions: %w", err)
	}
	defer rows.Close()

	var stages []types.RunStage
	for rows.Next() {
		var stage string
		if err := rows.Scan(&stage); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		stages = append(stages, types.RunStage(stage))
	}
	return stages, rows.Err()
}

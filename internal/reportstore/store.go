// Package reportstore persists run reports to SQLite so that runs with different settings can be compared later.
package reportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/LdDl/mot-seqid/seqid"
)

// ErrRunNotFound is returned when a run id is not stored.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	source          TEXT NOT NULL,
	created_at      INTEGER NOT NULL,
	frames          INTEGER NOT NULL,
	first_frame     INTEGER NOT NULL,
	last_frame      INTEGER NOT NULL,
	minted          INTEGER NOT NULL,
	final_tracks    INTEGER NOT NULL,
	merges          INTEGER NOT NULL,
	composite_score REAL NOT NULL,
	rating          TEXT NOT NULL,
	report_json     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tracks (
	run_id        TEXT NOT NULL,
	sequential_id INTEGER NOT NULL,
	status        TEXT NOT NULL,
	raw_ids       TEXT NOT NULL,
	first_frame   INTEGER NOT NULL,
	last_frame    INTEGER NOT NULL,
	duration      INTEGER NOT NULL,
	recoveries    INTEGER NOT NULL,
	merged_into   INTEGER,
	band          TEXT NOT NULL,
	PRIMARY KEY (run_id, sequential_id),
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS merges (
	run_id        TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	target_id     INTEGER NOT NULL,
	source_id     INTEGER NOT NULL,
	gap           INTEGER NOT NULL,
	mean_distance REAL NOT NULL,
	samples       INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq),
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS warnings (
	run_id  TEXT NOT NULL,
	seq     INTEGER NOT NULL,
	kind    TEXT NOT NULL,
	frame   INTEGER NOT NULL,
	raw_id  INTEGER NOT NULL,
	message TEXT NOT NULL,
	PRIMARY KEY (run_id, seq),
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// RunSummary is one row of the runs table.
type RunSummary struct {
	RunID          uuid.UUID    `json:"run_id"`
	Source         string       `json:"source"`
	CreatedAt      time.Time    `json:"created_at"`
	Frames         int          `json:"frames"`
	FirstFrame     int          `json:"first_frame"`
	LastFrame      int          `json:"last_frame"`
	Minted         int          `json:"minted"`
	FinalTracks    int          `json:"final_tracks"`
	Merges         int          `json:"merges"`
	CompositeScore float64      `json:"composite_score"`
	Rating         seqid.Rating `json:"rating"`
}

// Store provides persistence for run reports.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report store: %w", err)
	}
	// SQLite serializes writers anyway
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a report together with its tracks, merges and warnings in one transaction.
// source names the input the run was produced from.
func (s *Store) Insert(ctx context.Context, report *seqid.Report, source string) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	runID := report.RunID.String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, source, created_at, frames, first_frame, last_frame, minted, final_tracks, merges, composite_score, rating, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, source, s.now().UnixNano(), report.FramesProcessed, report.FirstFrame, report.LastFrame,
		report.Quality.SequentialIDsMinted, report.Quality.FinalTracks, len(report.Merges),
		report.Quality.CompositeScore, string(report.Quality.Rating), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}

	for _, track := range report.Tracks {
		rawIDs, err := json.Marshal(track.RawIDs)
		if err != nil {
			return fmt.Errorf("encode raw ids of track %d: %w", track.SequentialID, err)
		}
		var mergedInto any
		if track.MergedInto != 0 {
			mergedInto = track.MergedInto
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tracks (run_id, sequential_id, status, raw_ids, first_frame, last_frame, duration, recoveries, merged_into, band)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, track.SequentialID, track.Status.String(), string(rawIDs), track.FirstFrame, track.LastFrame,
			track.Duration, track.Recoveries, mergedInto, string(track.Band),
		)
		if err != nil {
			return fmt.Errorf("insert track %d: %w", track.SequentialID, err)
		}
	}

	for i, decision := range report.Merges {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO merges (run_id, seq, target_id, source_id, gap, mean_distance, samples)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, i, decision.Target, decision.Source, decision.Gap, decision.MeanDistance, decision.Samples,
		)
		if err != nil {
			return fmt.Errorf("insert merge %d <- %d: %w", decision.Target, decision.Source, err)
		}
	}

	for i, warning := range report.Warnings {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO warnings (run_id, seq, kind, frame, raw_id, message)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, i, string(warning.Kind), warning.Frame, warning.RawID, warning.Message,
		)
		if err != nil {
			return fmt.Errorf("insert warning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", runID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. Non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
		SELECT run_id, source, created_at, frames, first_frame, last_frame, minted, final_tracks, merges, composite_score, rating
		FROM runs
		ORDER BY created_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]RunSummary, 0)
	for rows.Next() {
		var (
			summary   RunSummary
			runID     string
			createdAt int64
			rating    string
		)
		err := rows.Scan(&runID, &summary.Source, &createdAt, &summary.Frames, &summary.FirstFrame, &summary.LastFrame,
			&summary.Minted, &summary.FinalTracks, &summary.Merges, &summary.CompositeScore, &rating)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if summary.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", runID, err)
		}
		summary.CreatedAt = time.Unix(0, createdAt)
		summary.Rating = seqid.Rating(rating)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return summaries, nil
}

// GetRun loads the full report of a run.
func (s *Store) GetRun(ctx context.Context, runID uuid.UUID) (*seqid.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT report_json FROM runs WHERE run_id = ?", runID.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	var report seqid.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &report, nil
}

// DeleteRun removes a run and everything stored with it.
func (s *Store) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", runID.String())
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// CountTracks returns number of stored tracks of a run grouped by status.
func (s *Store) CountTracks(ctx context.Context, runID uuid.UUID) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM tracks WHERE run_id = ? GROUP BY status", runID.String())
	if err != nil {
		return nil, fmt.Errorf("count tracks: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan track count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate track counts: %w", err)
	}
	return counts, nil
}

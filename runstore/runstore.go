// Package runstore persists run history to SQLite so training progress can
// be compared across runs. Everything is optional: a nil *Store is a valid
// no-op store, mirroring disabled CSV output.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store records runs, episodes and training events in a SQLite database.
type Store struct {
	db    *sql.DB
	runID string
}

// Open opens or creates the database at path and ensures the schema exists.
// Returns nil (a no-op store) if path is empty.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging run store: %w", err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing run store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// BeginRun registers a new run and returns its ID. Must be called before
// recording episodes or training events.
func (s *Store) BeginRun(ctx context.Context, morphology string, seed int64) (string, error) {
	if s == nil {
		return "", nil
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, morphology, seed, started_at)
		VALUES (?, ?, ?, ?)
	`, id, morphology, seed, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("registering run: %w", err)
	}
	s.runID = id
	return id, nil
}

// FinishRun stamps the run's end time and final stats.
func (s *Store) FinishRun(ctx context.Context, episodes int, bestFitness float64) error {
	if s == nil {
		return nil
	}
	if s.runID == "" {
		return errors.New("run store: no run in progress")
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, episodes = ?, best_fitness = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), episodes, bestFitness, s.runID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// RecordEpisode appends one completed episode to the run.
func (s *Store) RecordEpisode(ctx context.Context, episode int, reason string, meanFitness, exploration float64) error {
	if s == nil {
		return nil
	}
	if s.runID == "" {
		return errors.New("run store: no run in progress")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO episodes (run_id, episode, reason, mean_fitness, exploration_rate)
		VALUES (?, ?, ?, ?, ?)
	`, s.runID, episode, reason, meanFitness, exploration)
	if err != nil {
		return fmt.Errorf("recording episode: %w", err)
	}
	return nil
}

// RecordTraining appends one training event. skipped is the skip reason,
// empty when the fit updated the model.
func (s *Store) RecordTraining(ctx context.Context, samplesUsed int, loss float64, skipped string) error {
	if s == nil {
		return nil
	}
	if s.runID == "" {
		return errors.New("run store: no run in progress")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO training_events (run_id, samples_used, loss, skipped)
		VALUES (?, ?, ?, ?)
	`, s.runID, samplesUsed, loss, skipped)
	if err != nil {
		return fmt.Errorf("recording training event: %w", err)
	}
	return nil
}

// RunSummary is one row from the runs table.
type RunSummary struct {
	ID          string
	Morphology  string
	Seed        int64
	StartedAt   string
	FinishedAt  string
	Episodes    int
	BestFitness float64
}

// Runs lists past runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunSummary, error) {
	if s == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, morphology, seed, started_at,
		       COALESCE(finished_at, ''), COALESCE(episodes, 0), COALESCE(best_fitness, 0)
		FROM runs ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Morphology, &r.Seed, &r.StartedAt,
			&r.FinishedAt, &r.Episodes, &r.BestFitness); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunID returns the current run's ID, empty before BeginRun.
func (s *Store) RunID() string {
	if s == nil {
		return ""
	}
	return s.runID
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			morphology TEXT NOT NULL,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			episodes INTEGER,
			best_fitness REAL
		);
		CREATE TABLE IF NOT EXISTS episodes (
			run_id TEXT NOT NULL REFERENCES runs(id),
			episode INTEGER NOT NULL,
			reason TEXT NOT NULL,
			mean_fitness REAL NOT NULL,
			exploration_rate REAL NOT NULL
		);
		CREATE TABLE IF NOT EXISTS training_events (
			run_id TEXT NOT NULL REFERENCES runs(id),
			samples_used INTEGER NOT NULL,
			loss REAL NOT NULL,
			skipped TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

// Package store persists evaluation reports to PostgreSQL so runs can be
// compared over time.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS eval_runs (
    run_id      TEXT PRIMARY KEY,
    run_tag     TEXT NOT NULL,
    queries     INTEGER NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS eval_scores (
    run_id   TEXT NOT NULL REFERENCES eval_runs(run_id) ON DELETE CASCADE,
    metric   TEXT NOT NULL,
    query_id TEXT NOT NULL,
    value    DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, metric, query_id)
);`

// Store writes evaluation reports to the eval_runs and eval_scores tables.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "evaluation-store"),
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating evaluation schema: %w", err)
	}
	return nil
}

// SaveReport stores every score of report under runID in one transaction.
// Saving the same runID twice fails with a unique violation.
func (s *Store) SaveReport(ctx context.Context, runID string, report *evaluation.Report) error {
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO eval_runs (run_id, run_tag, queries, recorded_at) VALUES ($1, $2, $3, $4)`,
			runID, report.RunTag, len(report.QueryIDs), time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("eval_scores", "run_id", "metric", "query_id", "value"))
		if err != nil {
			return fmt.Errorf("preparing score copy: %w", err)
		}
		for _, sc := range report.Scores {
			if _, err := stmt.ExecContext(ctx, runID, string(sc.Metric), sc.QueryID, sc.Value); err != nil {
				stmt.Close()
				return fmt.Errorf("copying score: %w", err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			stmt.Close()
			return fmt.Errorf("flushing score copy: %w", err)
		}
		return stmt.Close()
	})
	if err != nil {
		return fmt.Errorf("saving report %s: %w", runID, err)
	}
	s.logger.Info("evaluation report saved",
		"run_id", runID,
		"run_tag", report.RunTag,
		"scores", len(report.Scores),
	)
	return nil
}

// LoadReport rebuilds a stored report. Scores come back grouped by metric in
// evaluation.Metrics order and sorted by query ID.
func (s *Store) LoadReport(ctx context.Context, runID string) (*evaluation.Report, error) {
	report := &evaluation.Report{}
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT run_tag FROM eval_runs WHERE run_id = $1`, runID,
	).Scan(&report.RunTag)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}

	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT metric, query_id, value FROM eval_scores
		 WHERE run_id = $1
		 ORDER BY array_position($2::text[], metric), query_id`,
		runID, pq.Array(metricNames()),
	)
	if err != nil {
		return nil, fmt.Errorf("listing scores for %s: %w", runID, err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var (
			sc     evaluation.Score
			metric string
		)
		if err := rows.Scan(&metric, &sc.QueryID, &sc.Value); err != nil {
			return nil, fmt.Errorf("scanning score row: %w", err)
		}
		sc.Metric = evaluation.Metric(metric)
		report.Scores = append(report.Scores, sc)
		if !seen[sc.QueryID] {
			seen[sc.QueryID] = true
			report.QueryIDs = append(report.QueryIDs, sc.QueryID)
		}
	}
	return report, rows.Err()
}

// MeanHistory returns the mean of metric for the most recent runs of a run
// tag, newest first.
func (s *Store) MeanHistory(ctx context.Context, runTag string, metric evaluation.Metric, limit int) ([]float64, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT AVG(sc.value) FROM eval_scores sc
		 JOIN eval_runs r ON r.run_id = sc.run_id
		 WHERE r.run_tag = $1 AND sc.metric = $2
		 GROUP BY r.run_id, r.recorded_at
		 ORDER BY r.recorded_at DESC
		 LIMIT $3`,
		runTag, string(metric), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying mean history: %w", err)
	}
	defer rows.Close()

	var means []float64
	for rows.Next() {
		var m float64
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scanning mean row: %w", err)
		}
		means = append(means, m)
	}
	return means, rows.Err()
}

// DeleteRun removes a run and its scores.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.DB.ExecContext(ctx, `DELETE FROM eval_runs WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("deleting run %s: %w", runID, err)
	}
	return nil
}

func metricNames() []string {
	names := make([]string, len(evaluation.Metrics))
	for i, m := range evaluation.Metrics {
		names[i] = string(m)
	}
	return names
}

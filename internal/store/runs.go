package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"workshift-engine/internal/domain"
	"workshift-engine/internal/pipeline"
)

// Run is one pipeline run's header row.
type Run struct {
	ID        int64  `json:"id"`
	StartedAt string `json:"started_at"`
	Status    string `json:"status"`
	Horizon   int    `json:"horizon"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// SaveBundle persists one run and its full result set in a single tx.
func SaveBundle(ctx context.Context, db *sql.DB, horizon int, b pipeline.Bundle) (runID int64, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT INTO runs (started_at, status, horizon, elapsed_ms)
VALUES (?, ?, ?, ?);`,
		b.StartedAt.Format(time.RFC3339), string(b.Status), horizon, b.Elapsed.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, f := range b.Forecasts {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO forecasts (run_id, category, horizon_index, point_estimate, lower_bound, upper_bound)
VALUES (?, ?, ?, ?, ?, ?);`,
			runID, f.Category, f.HorizonIndex, f.PointEstimate, f.LowerBound, f.UpperBound); err != nil {
			return 0, fmt.Errorf("insert forecast: %w", err)
		}
	}

	for _, s := range b.Scores {
		factorsB, _ := json.Marshal(s.ContributingFactors)
		if _, err := tx.ExecContext(ctx, `
INSERT INTO risk_scores (run_id, role_id, score, level, factors)
VALUES (?, ?, ?, ?, ?);`,
			runID, s.RoleID, s.Score, s.Level, string(factorsB)); err != nil {
			return 0, fmt.Errorf("insert risk score: %w", err)
		}
	}

	for _, f := range b.Failures {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO run_failures (run_id, kind, unit, error)
VALUES (?, ?, ?, ?);`,
			runID, string(f.Kind), f.Unit, f.Err); err != nil {
			return 0, fmt.Errorf("insert run failure: %w", err)
		}
	}

	return runID, tx.Commit()
}

func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, started_at, status, horizon, elapsed_ms
FROM runs
ORDER BY id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Status, &r.Horizon, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func latestRunID(ctx context.Context, db *sql.DB) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY id DESC LIMIT 1;`).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return id, err
}

// LatestBundle reads the most recent run back as a Bundle for the API.
// Returns ok=false when no run has happened yet.
func LatestBundle(ctx context.Context, db *sql.DB) (pipeline.Bundle, bool, error) {
	runID, err := latestRunID(ctx, db)
	if err != nil || runID == 0 {
		return pipeline.Bundle{}, false, err
	}

	var b pipeline.Bundle
	var startedAt string
	var elapsedMs int64
	var status string
	err = db.QueryRowContext(ctx, `
SELECT started_at, status, elapsed_ms FROM runs WHERE id = ?;`, runID).
		Scan(&startedAt, &status, &elapsedMs)
	if err != nil {
		return pipeline.Bundle{}, false, err
	}
	b.Status = pipeline.Status(status)
	b.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	b.Elapsed = time.Duration(elapsedMs) * time.Millisecond

	b.Forecasts, err = ListForecasts(ctx, db, runID, "")
	if err != nil {
		return pipeline.Bundle{}, false, err
	}

	rows, err := db.QueryContext(ctx, `
SELECT role_id, score, level, factors
FROM risk_scores
WHERE run_id = ?
ORDER BY score DESC, role_id;`, runID)
	if err != nil {
		return pipeline.Bundle{}, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var s domain.RiskScore
		var factorsJSON string
		if err := rows.Scan(&s.RoleID, &s.Score, &s.Level, &factorsJSON); err != nil {
			return pipeline.Bundle{}, false, err
		}
		_ = json.Unmarshal([]byte(factorsJSON), &s.ContributingFactors)
		b.Scores = append(b.Scores, s)
	}
	if err := rows.Err(); err != nil {
		return pipeline.Bundle{}, false, err
	}

	frows, err := db.QueryContext(ctx, `
SELECT kind, unit, error FROM run_failures WHERE run_id = ?;`, runID)
	if err != nil {
		return pipeline.Bundle{}, false, err
	}
	defer frows.Close()
	for frows.Next() {
		var f pipeline.Failure
		var kind string
		if err := frows.Scan(&kind, &f.Unit, &f.Err); err != nil {
			return pipeline.Bundle{}, false, err
		}
		f.Kind = pipeline.UnitKind(kind)
		b.Failures = append(b.Failures, f)
	}
	return b, true, frows.Err()
}

// ListForecasts returns a run's forecasts, optionally filtered by category.
func ListForecasts(ctx context.Context, db *sql.DB, runID int64, category string) ([]domain.ForecastResult, error) {
	query := `
SELECT category, horizon_index, point_estimate, lower_bound, upper_bound
FROM forecasts
WHERE run_id = ?`
	args := []any{runID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += `
ORDER BY category, horizon_index;`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ForecastResult
	for rows.Next() {
		var f domain.ForecastResult
		if err := rows.Scan(&f.Category, &f.HorizonIndex, &f.PointEstimate, &f.LowerBound, &f.UpperBound); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// LatestForecasts is ListForecasts against the most recent run.
func LatestForecasts(ctx context.Context, db *sql.DB, category string) ([]domain.ForecastResult, error) {
	runID, err := latestRunID(ctx, db)
	if err != nil || runID == 0 {
		return nil, err
	}
	return ListForecasts(ctx, db, runID, category)
}

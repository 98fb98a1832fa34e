package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"workshift-engine/internal/domain"
)

// Observation is one stored demand data point plus its provenance.
type Observation struct {
	ID       int64   `json:"id"`
	SourceID string  `json:"source_id"`
	RoleID   string  `json:"role_id"`
	Category string  `json:"category"`
	Ts       string  `json:"ts"`
	Demand   float64 `json:"demand_count"`
	Region   string  `json:"region"`
	Source   string  `json:"source"`
}

// InsertObservationIgnore dedups on source_id (e.g. "adzuna:data-analyst:2025-01")
// so re-collecting the same period is a no-op.
func InsertObservationIgnore(ctx context.Context, db *sql.DB, o Observation) (added bool, err error) {
	// relies on unique index on source_id WHERE source_id != ''
	_, err = db.ExecContext(ctx, `
INSERT OR IGNORE INTO observations (source_id, role_id, category, ts, demand_count, region, source, inserted_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		o.SourceID, o.RoleID, o.Category, o.Ts, o.Demand, o.Region, o.Source,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert observation: %w", err)
	}

	var changes int
	if e := db.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); e == nil {
		return changes > 0, nil
	}
	return true, nil
}

// ListObservationsAsRaw reads all stored observations back as RawRecords so
// every run goes through the same normalization path no matter where the
// data came from.
func ListObservationsAsRaw(ctx context.Context, db *sql.DB) ([]domain.RawRecord, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, role_id, category, ts, demand_count, region, source
FROM observations
ORDER BY category, ts, id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RawRecord
	for rows.Next() {
		var (
			id       int64
			roleID   string
			category string
			ts       string
			demand   float64
			region   string
			source   string
		)
		if err := rows.Scan(&id, &roleID, &category, &ts, &demand, &region, &source); err != nil {
			return nil, err
		}
		out = append(out, domain.RawRecord{
			Source: source,
			Row:    int(id),
			Fields: map[string]string{
				"role_id":      roleID,
				"category":     category,
				"timestamp":    ts,
				"demand_count": strconv.FormatFloat(demand, 'g', -1, 64),
				"region":       region,
			},
		})
	}
	return out, rows.Err()
}

// ListObservations returns stored observations newest-first for the API.
func ListObservations(ctx context.Context, db *sql.DB, limit int) ([]Observation, error) {
	if limit <= 0 || limit > 50000 {
		limit = 1000
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, source_id, role_id, category, ts, demand_count, region, source
FROM observations
ORDER BY ts DESC, id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.ID, &o.SourceID, &o.RoleID, &o.Category, &o.Ts, &o.Demand, &o.Region, &o.Source); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func CleanupOldObservations(db *sql.DB, retentionDays int) (deleted int64, err error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	res, err := db.Exec(fmt.Sprintf(`
DELETE FROM observations
WHERE ts < datetime('now', '-%d days');`, retentionDays))
	if err != nil {
		return 0, fmt.Errorf("cleanup old observations: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

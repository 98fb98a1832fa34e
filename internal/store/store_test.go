package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshift-engine/internal/domain"
	"workshift-engine/internal/pipeline"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, Migrate(db.Pool))

	var v int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, 1, v)
}

func TestInsertObservationDedup(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	o := Observation{
		SourceID: "adzuna:data-analyst:2025-01",
		RoleID:   "data-analyst",
		Category: "Data Analyst",
		Ts:       "2025-01-01",
		Demand:   120,
		Source:   "adzuna",
	}

	added, err := InsertObservationIgnore(ctx, db.Pool, o)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = InsertObservationIgnore(ctx, db.Pool, o)
	require.NoError(t, err)
	assert.False(t, added, "same source_id must not insert twice")

	raws, err := ListObservationsAsRaw(ctx, db.Pool)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "120", raws[0].Fields["demand_count"])
	assert.Equal(t, "Data Analyst", raws[0].Fields["category"])
}

func TestSaveAndLoadBundle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	in := pipeline.Bundle{
		Status:    pipeline.StatusPartiallyCompleted,
		StartedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Elapsed:   1500 * time.Millisecond,
		Forecasts: []domain.ForecastResult{
			{Category: "Backend Developer", HorizonIndex: 1, PointEstimate: 110, LowerBound: 90, UpperBound: 130},
			{Category: "Backend Developer", HorizonIndex: 2, PointEstimate: 115, LowerBound: 88, UpperBound: 142},
		},
		Scores: []domain.RiskScore{
			{RoleID: "Data Entry", Score: 0.91, Level: "very_high", ContributingFactors: []domain.Contribution{
				{Dimension: "routine_tasks", Amount: 0.22},
			}},
		},
		Failures: []pipeline.Failure{
			{Kind: pipeline.UnitCategory, Unit: "Data Entry", Err: "insufficient data"},
		},
	}

	runID, err := SaveBundle(ctx, db.Pool, 12, in)
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	out, ok, err := LatestBundle(ctx, db.Pool)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, in.Status, out.Status)
	assert.Equal(t, in.Forecasts, out.Forecasts)
	assert.Equal(t, in.Scores, out.Scores)
	assert.Equal(t, in.Failures, out.Failures)
	assert.Equal(t, in.StartedAt, out.StartedAt)

	runs, err := ListRuns(ctx, db.Pool, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "partially_completed", runs[0].Status)
	assert.Equal(t, 12, runs[0].Horizon)
	assert.Equal(t, int64(1500), runs[0].ElapsedMs)
}

func TestLatestBundleEmpty(t *testing.T) {
	db := testDB(t)
	_, ok, err := LatestBundle(context.Background(), db.Pool)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListForecastsCategoryFilter(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	bundle := pipeline.Bundle{
		Status:    pipeline.StatusCompleted,
		StartedAt: time.Now().UTC().Truncate(time.Second),
		Forecasts: []domain.ForecastResult{
			{Category: "A", HorizonIndex: 1, PointEstimate: 1, LowerBound: 0, UpperBound: 2},
			{Category: "B", HorizonIndex: 1, PointEstimate: 5, LowerBound: 4, UpperBound: 6},
		},
	}
	_, err := SaveBundle(ctx, db.Pool, 1, bundle)
	require.NoError(t, err)

	got, err := LatestForecasts(ctx, db.Pool, "B")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Category)
}

package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshift-engine/internal/domain"
)

func series(category string, demands ...float64) []domain.JobRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.JobRecord, len(demands))
	for i, d := range demands {
		out[i] = domain.JobRecord{
			RoleID:      "r",
			Category:    category,
			Timestamp:   start.AddDate(0, i, 0),
			DemandCount: d,
		}
	}
	return out
}

func TestCategoryHorizonLengthAndBounds(t *testing.T) {
	s := series("Backend Developer", 100, 110, 105, 120, 118, 130)

	for _, horizon := range []int{1, 3, 12} {
		got, err := Category("Backend Developer", s, Options{Horizon: horizon})
		require.NoError(t, err)
		require.Len(t, got, horizon)

		for i, f := range got {
			assert.Equal(t, "Backend Developer", f.Category)
			assert.Equal(t, i+1, f.HorizonIndex)
			assert.GreaterOrEqual(t, f.LowerBound, 0.0)
			assert.LessOrEqual(t, f.LowerBound, f.PointEstimate)
			assert.LessOrEqual(t, f.PointEstimate, f.UpperBound)
		}
	}
}

func TestCategoryInsufficientData(t *testing.T) {
	_, err := Category("Data Entry", series("Data Entry", 50, 48), Options{Horizon: 6})
	require.Error(t, err)

	var ide *domain.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, "Data Entry", ide.Category)
	assert.Equal(t, 2, ide.Have)
	assert.Equal(t, 3, ide.Need)
}

func TestCategoryNeverNegativeOnDownTrend(t *testing.T) {
	// Steeply falling demand: naive extrapolation goes below zero fast.
	got, err := Category("Data Entry", series("Data Entry", 100, 60, 20, 5), Options{Horizon: 12})
	require.NoError(t, err)
	require.Len(t, got, 12)

	for _, f := range got {
		assert.GreaterOrEqual(t, f.LowerBound, 0.0)
		assert.LessOrEqual(t, f.LowerBound, f.PointEstimate)
		assert.LessOrEqual(t, f.PointEstimate, f.UpperBound)
	}
}

func TestCategoryTracksLinearTrend(t *testing.T) {
	// Perfect line: 10, 20, ..., 60. Next points continue it exactly.
	got, err := Category("QA Tester", series("QA Tester", 10, 20, 30, 40, 50, 60), Options{Horizon: 2})
	require.NoError(t, err)

	assert.InDelta(t, 70, got[0].PointEstimate, 1e-9)
	assert.InDelta(t, 80, got[1].PointEstimate, 1e-9)
	// Zero residuals mean a degenerate band.
	assert.InDelta(t, got[0].LowerBound, got[0].UpperBound, 1e-9)
}

func TestCategorySeasonalComponent(t *testing.T) {
	// Period-4 sawtooth around a flat level, two full cycles observed.
	s := series("Data Analyst", 100, 120, 100, 80, 100, 120, 100, 80)
	got, err := Category("Data Analyst", s, Options{Horizon: 4, SeasonLength: 4})
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Forecast repeats the seasonal shape: the "120" phase peaks, the
	// "80" phase bottoms out.
	for _, f := range got {
		assert.LessOrEqual(t, f.PointEstimate, got[1].PointEstimate)
		assert.GreaterOrEqual(t, f.PointEstimate, got[3].PointEstimate)
	}
	assert.Greater(t, got[1].PointEstimate, got[3].PointEstimate)
}

func TestCategoryDeterministic(t *testing.T) {
	s := series("DevOps Engineer", 40, 42, 39, 51, 48, 55, 53)

	a, err := Category("DevOps Engineer", s, Options{Horizon: 8})
	require.NoError(t, err)
	b, err := Category("DevOps Engineer", s, Options{Horizon: 8})
	require.NoError(t, err)

	require.Equal(t, a, b)
	for i := range a {
		assert.False(t, math.IsNaN(a[i].PointEstimate))
	}
}

func TestCategoryWiderBandsFurtherOut(t *testing.T) {
	s := series("Data Scientist", 10, 14, 9, 16, 12, 18, 11)
	got, err := Category("Data Scientist", s, Options{Horizon: 6})
	require.NoError(t, err)

	first := got[0].UpperBound - got[0].LowerBound
	last := got[5].UpperBound - got[5].LowerBound
	assert.Greater(t, last, first)
}

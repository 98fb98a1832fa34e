package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshift-engine/internal/domain"
	"workshift-engine/internal/forecast"
	"workshift-engine/internal/risk"
)

func demandRaws(category string, months int) []domain.RawRecord {
	out := make([]domain.RawRecord, months)
	for i := 0; i < months; i++ {
		out[i] = domain.RawRecord{
			Source: "csv",
			Row:    i + 1,
			Fields: map[string]string{
				"role_id":      category,
				"category":     category,
				"timestamp":    fmt.Sprintf("2024-%02d-01", i+1),
				"demand_count": fmt.Sprintf("%d", 100+10*i),
			},
		}
	}
	return out
}

func goodVector(role string) domain.RiskFeatureVector {
	return risk.Vector(role, risk.Profiles()["QA Tester"])
}

func TestRunCompleted(t *testing.T) {
	raws := append(demandRaws("Backend Developer", 6), demandRaws("Data Analyst", 6)...)
	vectors := []domain.RiskFeatureVector{goodVector("qa-1"), goodVector("qa-2")}

	bundle, err := Run(context.Background(), raws, vectors, Options{
		Forecast: forecast.Options{Horizon: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, bundle.Status)
	assert.Len(t, bundle.Forecasts, 6) // 2 categories x horizon 3
	assert.Len(t, bundle.Scores, 2)
	assert.Empty(t, bundle.Failures)
}

func TestRunPartialFailuresDoNotAbortSiblings(t *testing.T) {
	// "Data Entry" has 2 observations: below the minimum of 3.
	raws := append(demandRaws("Data Entry", 2), demandRaws("Backend Developer", 6)...)
	vectors := []domain.RiskFeatureVector{
		goodVector("qa-1"),
		{RoleID: "broken", Dimensions: []domain.RiskDimension{
			{Name: "a", Exposure: 0.5, Weight: 0.5},
			{Name: "b", Exposure: 0.5, Weight: 0.6},
		}},
	}

	bundle, err := Run(context.Background(), raws, vectors, Options{
		Forecast: forecast.Options{Horizon: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPartiallyCompleted, bundle.Status)
	assert.Len(t, bundle.Forecasts, 4) // Backend Developer only
	assert.Len(t, bundle.Scores, 1)    // qa-1 only

	require.Len(t, bundle.Failures, 2)
	assert.Equal(t, UnitCategory, bundle.Failures[0].Kind)
	assert.Equal(t, "Data Entry", bundle.Failures[0].Unit)
	assert.Contains(t, bundle.Failures[0].Err, "insufficient data")
	assert.Equal(t, UnitRole, bundle.Failures[1].Kind)
	assert.Equal(t, "broken", bundle.Failures[1].Unit)
}

func TestRunFailedWhenNothingNormalizes(t *testing.T) {
	raws := []domain.RawRecord{
		{Source: "csv", Row: 1, Fields: map[string]string{"category": "A"}},
		{Source: "csv", Row: 2, Fields: map[string]string{"category": "B"}},
	}

	bundle, err := Run(context.Background(), raws, nil, Options{
		Forecast: forecast.Options{Horizon: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, bundle.Status)
	assert.Empty(t, bundle.Forecasts)
	assert.Len(t, bundle.Failures, 2)
	for _, f := range bundle.Failures {
		assert.Equal(t, UnitRecord, f.Kind)
	}
}

func TestRunRecordFailuresAreNotFatal(t *testing.T) {
	raws := append(demandRaws("Backend Developer", 6), domain.RawRecord{
		Source: "csv", Row: 99,
		Fields: map[string]string{"role_id": "x", "category": "X", "timestamp": "2024-01-01", "demand_count": "NaN?"},
	})

	bundle, err := Run(context.Background(), raws, nil, Options{
		Forecast: forecast.Options{Horizon: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPartiallyCompleted, bundle.Status)
	assert.Len(t, bundle.Forecasts, 1)
}

func TestRunDeterministic(t *testing.T) {
	raws := append(demandRaws("Backend Developer", 8), demandRaws("Data Analyst", 8)...)
	raws = append(raws, demandRaws("Data Entry", 1)...)
	vectors := []domain.RiskFeatureVector{goodVector("a"), goodVector("b")}

	opts := Options{Forecast: forecast.Options{Horizon: 5}, Workers: 4}

	first, err := Run(context.Background(), raws, vectors, opts)
	require.NoError(t, err)
	second, err := Run(context.Background(), raws, vectors, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Forecasts, second.Forecasts)
	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, first.Failures, second.Failures)
}

func TestRunDeadlineReturnsPartials(t *testing.T) {
	raws := demandRaws("Backend Developer", 6)

	bundle, err := Run(context.Background(), raws, []domain.RiskFeatureVector{goodVector("a")}, Options{
		Forecast: forecast.Options{Horizon: 2},
		Deadline: time.Nanosecond,
	})
	require.Error(t, err)

	var te *domain.TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StatusPartiallyCompleted, bundle.Status)
	// skipped units are not reported as unit failures
	assert.Empty(t, bundle.Failures)
}

func TestRunCanceledContextIsNotATimeout(t *testing.T) {
	raws := demandRaws("Backend Developer", 6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // client gone before the fan-out starts

	bundle, err := Run(ctx, raws, []domain.RiskFeatureVector{goodVector("a")}, Options{
		Forecast: forecast.Options{Horizon: 2},
	})
	require.Error(t, err)

	var te *domain.TimeoutError
	assert.False(t, errors.As(err, &te), "cancellation mislabeled as a deadline")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StatusPartiallyCompleted, bundle.Status)
}

func TestRunRoleFailuresSorted(t *testing.T) {
	badVector := func(role string) domain.RiskFeatureVector {
		return domain.RiskFeatureVector{RoleID: role, Dimensions: []domain.RiskDimension{
			{Name: "a", Exposure: 0.5, Weight: 0.5},
			{Name: "b", Exposure: 0.5, Weight: 0.6},
		}}
	}
	raws := demandRaws("Backend Developer", 6)
	vectors := []domain.RiskFeatureVector{badVector("zeta"), badVector("alpha")}

	bundle, err := Run(context.Background(), raws, vectors, Options{
		Forecast: forecast.Options{Horizon: 1},
	})
	require.NoError(t, err)

	require.Len(t, bundle.Failures, 2)
	assert.Equal(t, "alpha", bundle.Failures[0].Unit)
	assert.Equal(t, "zeta", bundle.Failures[1].Unit)
}

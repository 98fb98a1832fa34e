package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshift-engine/internal/domain"
)

func TestScoreWeightedSum(t *testing.T) {
	got, err := Score(domain.RiskFeatureVector{
		RoleID: "data-entry",
		Dimensions: []domain.RiskDimension{
			{Name: "routine_tasks", Exposure: 0.9, Weight: 0.5},
			{Name: "data_processing", Exposure: 0.8, Weight: 0.3},
			{Name: "human_interaction", Exposure: 0.1, Weight: 0.2},
		},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.9*0.5+0.8*0.3+0.1*0.2, got.Score, 1e-9)
	assert.Equal(t, "very_high", got.Level)

	require.Len(t, got.ContributingFactors, 3)
	assert.Equal(t, "routine_tasks", got.ContributingFactors[0].Dimension)
	assert.Equal(t, "data_processing", got.ContributingFactors[1].Dimension)
	assert.Equal(t, "human_interaction", got.ContributingFactors[2].Dimension)
}

func TestScoreRejectsBadWeightSum(t *testing.T) {
	_, err := Score(domain.RiskFeatureVector{
		RoleID: "qa",
		Dimensions: []domain.RiskDimension{
			{Name: "a", Exposure: 0.5, Weight: 0.5},
			{Name: "b", Exposure: 0.5, Weight: 0.6},
		},
	})
	require.Error(t, err)

	var iwe *domain.InvalidWeightsError
	require.True(t, errors.As(err, &iwe))
	assert.Equal(t, "qa", iwe.RoleID)
	assert.InDelta(t, 1.1, iwe.Sum, 1e-9)
}

func TestScoreRejectsOutOfRangeValues(t *testing.T) {
	cases := []struct {
		name string
		dims []domain.RiskDimension
	}{
		{"exposure above 1", []domain.RiskDimension{{Name: "a", Exposure: 1.2, Weight: 1.0}}},
		{"negative exposure", []domain.RiskDimension{{Name: "a", Exposure: -0.1, Weight: 1.0}}},
		{"negative weight", []domain.RiskDimension{{Name: "a", Exposure: 0.5, Weight: -1.0}, {Name: "b", Exposure: 0.5, Weight: 2.0}}},
		{"empty vector", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Score(domain.RiskFeatureVector{RoleID: "x", Dimensions: tc.dims})
			var iwe *domain.InvalidWeightsError
			require.True(t, errors.As(err, &iwe))
		})
	}
}

func TestScoreStaysInUnitInterval(t *testing.T) {
	for role, p := range Profiles() {
		got, err := Score(Vector(role, p))
		require.NoError(t, err, role)
		assert.GreaterOrEqual(t, got.Score, 0.0, role)
		assert.LessOrEqual(t, got.Score, 1.0, role)
	}
}

func TestVectorWeightsSumToOne(t *testing.T) {
	vec := Vector("Data Entry", Profiles()["Data Entry"])
	var sum float64
	for _, d := range vec.Dimensions {
		sum += d.Weight
		assert.GreaterOrEqual(t, d.Exposure, 0.0)
		assert.LessOrEqual(t, d.Exposure, 1.0)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestProfileOrderingMatchesStudy(t *testing.T) {
	// Data Entry is the most automatable role in the study; managers the
	// least. The converted vectors must preserve that ordering.
	score := func(role string) float64 {
		got, err := Score(Vector(role, Profiles()[role]))
		require.NoError(t, err)
		return got.Score
	}

	dataEntry := score("Data Entry")
	qa := score("QA Tester")
	em := score("Engineering Manager")

	assert.Greater(t, dataEntry, qa)
	assert.Greater(t, qa, em)
}

func TestCategoryForTitle(t *testing.T) {
	cases := map[string]string{
		"Senior Machine Learning Engineer": "Machine Learning Engineer",
		"Data Scientist II":                "Data Scientist",
		"Lead DevOps / SRE":                "DevOps Engineer",
		"Frontend Developer (React)":       "Frontend Developer",
		"Rockstar Ninja":                   "Software Engineer",
	}
	for title, want := range cases {
		assert.Equal(t, want, CategoryForTitle(title), title)
	}
}

func TestLevelBands(t *testing.T) {
	assert.Equal(t, "very_high", Level(0.70))
	assert.Equal(t, "high", Level(0.69))
	assert.Equal(t, "medium", Level(0.30))
	assert.Equal(t, "low", Level(0.15))
	assert.Equal(t, "very_low", Level(0.14))
}

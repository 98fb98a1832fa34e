package risk

import (
	"math"
	"sort"

	"workshift-engine/internal/domain"
)

// WeightEpsilon is how far from 1.0 a vector's weight sum may drift before
// the role is rejected.
const WeightEpsilon = 0.01

// Score computes the automation-risk score for one role: a weighted sum of
// its exposure dimensions. Deterministic, no randomness. Returns
// InvalidWeightsError when the vector is malformed; the caller skips that
// role and keeps going.
func Score(vec domain.RiskFeatureVector) (domain.RiskScore, error) {
	if len(vec.Dimensions) == 0 {
		return domain.RiskScore{}, &domain.InvalidWeightsError{
			RoleID: vec.RoleID,
			Reason: "no dimensions",
		}
	}

	var sum float64
	for _, d := range vec.Dimensions {
		if d.Weight < 0 || d.Weight > 1 {
			return domain.RiskScore{}, &domain.InvalidWeightsError{
				RoleID: vec.RoleID,
				Reason: "weight for " + d.Name + " outside [0,1]",
			}
		}
		if d.Exposure < 0 || d.Exposure > 1 {
			return domain.RiskScore{}, &domain.InvalidWeightsError{
				RoleID: vec.RoleID,
				Reason: "exposure for " + d.Name + " outside [0,1]",
			}
		}
		sum += d.Weight
	}
	if math.Abs(sum-1.0) > WeightEpsilon {
		return domain.RiskScore{}, &domain.InvalidWeightsError{RoleID: vec.RoleID, Sum: sum}
	}

	score := 0.0
	factors := make([]domain.Contribution, 0, len(vec.Dimensions))
	for _, d := range vec.Dimensions {
		c := d.Weight * d.Exposure
		score += c
		factors = append(factors, domain.Contribution{Dimension: d.Name, Amount: c})
	}

	// Largest contributors first; name breaks ties so output order is
	// stable across runs.
	sort.SliceStable(factors, func(i, j int) bool {
		if factors[i].Amount != factors[j].Amount {
			return factors[i].Amount > factors[j].Amount
		}
		return factors[i].Dimension < factors[j].Dimension
	})

	// Weighted sum of [0,1] exposures with weights summing to ~1 can
	// only leave [0,1] by epsilon slack.
	score = math.Max(0, math.Min(1, score))

	return domain.RiskScore{
		RoleID:              vec.RoleID,
		Score:               score,
		Level:               Level(score),
		ContributingFactors: factors,
	}, nil
}

// Level buckets a score into the bands the dashboard displays.
func Level(score float64) string {
	switch {
	case score >= 0.70:
		return "very_high"
	case score >= 0.50:
		return "high"
	case score >= 0.30:
		return "medium"
	case score >= 0.15:
		return "low"
	default:
		return "very_low"
	}
}

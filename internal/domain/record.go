package domain

import "time"

// RawRecord is one row as the ingest layer or a collector produced it:
// every field still a string, nothing validated yet.
type RawRecord struct {
	Fields map[string]string
	Source string // csv/adzuna/boards/email
	Row    int    // 1-based position in the input, for error reporting
}

// JobRecord is the canonical observation the pipeline works on.
type JobRecord struct {
	RoleID      string    `json:"role_id"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
	DemandCount float64   `json:"demand_count"`
	Region      string    `json:"region,omitempty"`
}

// RiskDimension is one task-automatability signal for a role.
type RiskDimension struct {
	Name     string  `json:"name"`
	Exposure float64 `json:"exposure"` // [0,1]
	Weight   float64 `json:"weight"`   // weights sum to 1 across the vector
}

type RiskFeatureVector struct {
	RoleID     string          `json:"role_id"`
	Dimensions []RiskDimension `json:"dimensions"`
}

type ForecastResult struct {
	Category      string  `json:"category"`
	HorizonIndex  int     `json:"horizon_index"` // 1-based future period
	PointEstimate float64 `json:"point_estimate"`
	LowerBound    float64 `json:"lower_bound"`
	UpperBound    float64 `json:"upper_bound"`
}

// Contribution is one dimension's share of a risk score.
type Contribution struct {
	Dimension string  `json:"dimension"`
	Amount    float64 `json:"amount"`
}

type RiskScore struct {
	RoleID              string         `json:"role_id"`
	Score               float64        `json:"score"` // [0,1]
	Level               string         `json:"level"` // very_low..very_high
	ContributingFactors []Contribution `json:"contributing_factors"`
}

package domain

import (
	"fmt"
	"time"
)

// SchemaError means one raw record could not be coerced into a JobRecord.
// Fatal for that record only.
type SchemaError struct {
	Field  string
	Reason string
	Row    int
	Source string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: row %d (%s) field %q: %s", e.Row, e.Source, e.Field, e.Reason)
}

// InsufficientDataError means a category had too few observations to fit a
// model. The category is skipped; the run continues.
type InsufficientDataError struct {
	Category string
	Have     int
	Need     int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: category %q has %d observations, need %d", e.Category, e.Have, e.Need)
}

// InvalidWeightsError means a role's feature vector is malformed. The role
// is skipped; the run continues.
type InvalidWeightsError struct {
	RoleID string
	Sum    float64
	Reason string
}

func (e *InvalidWeightsError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid weights: role %q: %s", e.RoleID, e.Reason)
	}
	return fmt.Sprintf("invalid weights: role %q: weights sum to %.4f, want 1.0", e.RoleID, e.Sum)
}

// TimeoutError means the run deadline passed. Partial results computed
// before the deadline are still returned alongside it.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("run deadline exceeded after %s", e.Elapsed)
}

package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshift-engine/internal/domain"
)

func raw(row int, fields map[string]string) domain.RawRecord {
	return domain.RawRecord{Fields: fields, Source: "csv", Row: row}
}

func TestRunCoercesValidRows(t *testing.T) {
	res := Run([]domain.RawRecord{
		raw(1, map[string]string{
			"role_id":      "data-analyst",
			"category":     "Data Analyst",
			"timestamp":    "2025-01-01",
			"demand_count": "120",
			"region":       "us",
		}),
		raw(2, map[string]string{
			"role_id":      "backend-dev",
			"category":     "Backend Developer",
			"timestamp":    "2025-02-01T00:00:00Z",
			"demand_count": "88.5",
		}),
	})

	require.Empty(t, res.Errors)
	require.Len(t, res.Records, 2)

	assert.Equal(t, "data-analyst", res.Records[0].RoleID)
	assert.Equal(t, 120.0, res.Records[0].DemandCount)
	assert.Equal(t, "us", res.Records[0].Region)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), res.Records[1].Timestamp)
}

func TestRunDropsBadRowsOnly(t *testing.T) {
	res := Run([]domain.RawRecord{
		raw(1, map[string]string{"role_id": "a", "category": "A", "timestamp": "2025-01-01", "demand_count": "10"}),
		raw(2, map[string]string{"role_id": "b", "category": "B", "timestamp": "2025-01-01", "demand_count": "lots"}),
		raw(3, map[string]string{"role_id": "", "category": "C", "timestamp": "2025-01-01", "demand_count": "5"}),
		raw(4, map[string]string{"role_id": "d", "category": "D", "timestamp": "someday", "demand_count": "5"}),
		raw(5, map[string]string{"role_id": "e", "category": "E", "timestamp": "2025-01-01", "demand_count": "-3"}),
	})

	require.Len(t, res.Records, 1)
	require.Len(t, res.Errors, 4)
	assert.LessOrEqual(t, len(res.Records), 5)

	assert.Equal(t, "demand_count", res.Errors[0].Field)
	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Equal(t, "role_id", res.Errors[1].Field)
	assert.Equal(t, "timestamp", res.Errors[2].Field)
	assert.Equal(t, "demand_count", res.Errors[3].Field)
}

func TestRunOutputInvariants(t *testing.T) {
	res := Run([]domain.RawRecord{
		raw(1, map[string]string{"role_id": "a", "category": "A", "timestamp": "2025-03-01", "demand_count": "0"}),
		raw(2, map[string]string{"role_id": "a", "category": "A", "timestamp": "2025-01-01", "demand_count": "7"}),
	})
	require.Empty(t, res.Errors)
	for _, r := range res.Records {
		assert.GreaterOrEqual(t, r.DemandCount, 0.0)
		assert.False(t, r.Timestamp.IsZero())
		assert.NotEmpty(t, r.RoleID)
		assert.NotEmpty(t, r.Category)
	}
}

func TestGroupByCategorySortsAndDedups(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	groups := GroupByCategory([]domain.JobRecord{
		{RoleID: "a", Category: "A", Timestamp: feb, DemandCount: 2},
		{RoleID: "a", Category: "A", Timestamp: jan, DemandCount: 1},
		{RoleID: "a", Category: "A", Timestamp: feb, DemandCount: 9}, // dup ts, last wins
		{RoleID: "b", Category: "B", Timestamp: jan, DemandCount: 4},
	})

	require.Len(t, groups, 2)
	a := groups["A"]
	require.Len(t, a, 2)
	assert.Equal(t, jan, a[0].Timestamp)
	assert.Equal(t, feb, a[1].Timestamp)
	assert.Equal(t, 9.0, a[1].DemandCount)

	// strictly increasing after dedup
	for i := 1; i < len(a); i++ {
		assert.True(t, a[i-1].Timestamp.Before(a[i].Timestamp))
	}
}

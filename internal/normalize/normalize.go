package normalize

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"workshift-engine/internal/domain"
)

// Field names accepted in RawRecord.Fields. Collectors and the CSV loader
// both emit these keys.
const (
	FieldRoleID    = "role_id"
	FieldCategory  = "category"
	FieldTimestamp = "timestamp"
	FieldDemand    = "demand_count"
	FieldRegion    = "region"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
}

// Result is what a normalization pass produces: the surviving records in
// input order plus one SchemaError per dropped row.
type Result struct {
	Records []domain.JobRecord
	Errors  []*domain.SchemaError
}

// Run coerces raw rows into JobRecords. Pure: no side effects, identical
// input gives identical output. Bad rows are dropped and reported, never
// fatal for the batch.
func Run(raws []domain.RawRecord) Result {
	var res Result
	for _, raw := range raws {
		rec, serr := coerce(raw)
		if serr != nil {
			res.Errors = append(res.Errors, serr)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

func coerce(raw domain.RawRecord) (domain.JobRecord, *domain.SchemaError) {
	fail := func(field, reason string) (domain.JobRecord, *domain.SchemaError) {
		return domain.JobRecord{}, &domain.SchemaError{
			Field:  field,
			Reason: reason,
			Row:    raw.Row,
			Source: raw.Source,
		}
	}

	get := func(field string) string {
		return strings.TrimSpace(raw.Fields[field])
	}

	roleID := get(FieldRoleID)
	if roleID == "" {
		return fail(FieldRoleID, "required field missing")
	}

	category := get(FieldCategory)
	if category == "" {
		return fail(FieldCategory, "required field missing")
	}

	tsStr := get(FieldTimestamp)
	if tsStr == "" {
		return fail(FieldTimestamp, "required field missing")
	}
	ts, ok := parseTimestamp(tsStr)
	if !ok {
		return fail(FieldTimestamp, "unparseable timestamp "+strconv.Quote(tsStr))
	}

	demandStr := get(FieldDemand)
	if demandStr == "" {
		return fail(FieldDemand, "required field missing")
	}
	demand, err := strconv.ParseFloat(demandStr, 64)
	if err != nil {
		return fail(FieldDemand, "not numeric: "+strconv.Quote(demandStr))
	}
	if demand < 0 {
		return fail(FieldDemand, "negative demand_count")
	}

	return domain.JobRecord{
		RoleID:      roleID,
		Category:    category,
		Timestamp:   ts.UTC(),
		DemandCount: demand,
		Region:      get(FieldRegion),
	}, nil
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GroupByCategory splits records into per-category series sorted by
// timestamp. Duplicate timestamps within a category collapse to the last
// record seen, so every series is strictly increasing in time.
func GroupByCategory(records []domain.JobRecord) map[string][]domain.JobRecord {
	groups := make(map[string][]domain.JobRecord)
	for _, r := range records {
		groups[r.Category] = append(groups[r.Category], r)
	}

	for cat, series := range groups {
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Timestamp.Before(series[j].Timestamp)
		})
		dedup := series[:0]
		for _, r := range series {
			if n := len(dedup); n > 0 && dedup[n-1].Timestamp.Equal(r.Timestamp) {
				dedup[n-1] = r
				continue
			}
			dedup = append(dedup, r)
		}
		groups[cat] = dedup
	}
	return groups
}

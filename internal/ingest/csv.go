package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"workshift-engine/internal/domain"
)

// header aliases seen across the exported datasets. Keys are lowercased
// header cells, values are the canonical field names the normalizer wants.
var headerAliases = map[string]string{
	"role_id":               "role_id",
	"role":                  "role_id",
	"job_title":             "role_id",
	"search_term":           "role_id",
	"category":              "category",
	"risk_category":         "category",
	"timestamp":             "timestamp",
	"date":                  "timestamp",
	"demand_count":          "demand_count",
	"postings":              "demand_count",
	"demand":                "demand_count",
	"region":                "region",
	"location":              "region",
	"automation_risk_score": "automation_risk_score",
}

// ReadDemandCSV turns a delimited demand export into RawRecords. Only the
// header must be well-formed; malformed data rows still become RawRecords
// and get rejected row-by-row by the normalizer, so one bad line never
// sinks the file.
func ReadDemandCSV(r io.Reader, source string) ([]domain.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}

	cols := make([]string, len(header))
	for i, cell := range header {
		cols[i] = headerAliases[strings.ToLower(strings.TrimSpace(cell))]
	}

	var out []domain.RawRecord
	row := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			// keep a placeholder so the normalizer reports the row
			out = append(out, domain.RawRecord{Fields: map[string]string{}, Source: source, Row: row})
			continue
		}

		fields := make(map[string]string, len(cols))
		for i, cell := range rec {
			if i < len(cols) && cols[i] != "" {
				fields[cols[i]] = strings.TrimSpace(cell)
			}
		}
		out = append(out, domain.RawRecord{Fields: fields, Source: source, Row: row})
	}
	return out, nil
}

// ReadDemandFile is ReadDemandCSV for a path.
func ReadDemandFile(path string) ([]domain.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDemandCSV(f, "csv:"+path)
}

// ReadRiskReferenceCSV loads a per-role risk reference export: one row per
// role with a column per factor. Rows missing a role id are skipped.
func ReadRiskReferenceCSV(r io.Reader) ([]domain.RiskFeatureVector, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	cols := make([]string, len(header))
	roleCol := -1
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		cols[i] = name
		if headerAliases[name] == "role_id" {
			roleCol = i
		}
	}
	if roleCol == -1 {
		return nil, fmt.Errorf("csv header: no role column in %v", header)
	}

	var out []domain.RiskFeatureVector
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		role := strings.TrimSpace(rec[roleCol])
		if role == "" {
			continue
		}

		var dims []domain.RiskDimension
		for i, cell := range rec {
			if i == roleCol || i >= len(cols) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				continue
			}
			dims = append(dims, domain.RiskDimension{Name: cols[i], Exposure: v})
		}
		// Reference exports carry exposures only; weights are spread
		// evenly so the vector validates.
		for i := range dims {
			dims[i].Weight = 1.0 / float64(len(dims))
		}
		out = append(out, domain.RiskFeatureVector{RoleID: role, Dimensions: dims})
	}
	return out, nil
}

// ReadRiskReferenceFile is ReadRiskReferenceCSV for a path.
func ReadRiskReferenceFile(path string) ([]domain.RiskFeatureVector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRiskReferenceCSV(f)
}

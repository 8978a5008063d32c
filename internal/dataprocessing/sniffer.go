package dataprocessing

import (
	"strconv"
	"strings"
)

// ColumnProfile describes what a sheet offers for charting: every column,
// which ones look like time axes, and which ones parse as numbers.
type ColumnProfile struct {
	Sheet          string   `json:"sheet"`
	Columns        []string `json:"columns"`
	TimeCandidates []string `json:"time_candidates"`
	NumericColumns []string `json:"numeric_columns"`
	Rows           int      `json:"rows"`
}

// SniffColumns classifies the columns of an already parsed sheet.
// Only the first sampleRows data rows are inspected; a column counts as
// numeric when its parseable cells reach max(3, 60% of the sampled
// non-empty cells). Columns with fewer than three usable cells never
// classify, so near-empty sheets do not offer junk columns.
func SniffColumns(ds *Dataset, sampleRows int) *ColumnProfile {
	profile := &ColumnProfile{
		Sheet:          ds.Sheet,
		Columns:        ds.Columns,
		TimeCandidates: make([]string, 0, 2),
		NumericColumns: make([]string, 0, len(ds.Columns)),
		Rows:           ds.Rows(),
	}

	for _, name := range ds.Columns {
		if strings.Contains(strings.ToLower(name), "time") {
			profile.TimeCandidates = append(profile.TimeCandidates, name)
		}

		cells, _ := ds.Column(name)
		if sampleRows > 0 && len(cells) > sampleRows {
			cells = cells[:sampleRows]
		}

		sampled, numeric := 0, 0
		for _, cell := range cells {
			if cell == "" {
				continue
			}
			sampled++
			if _, err := strconv.ParseFloat(normalizeNumber(cell), 64); err == nil {
				numeric++
			}
		}

		threshold := int(0.6 * float64(sampled))
		if threshold < 3 {
			threshold = 3
		}
		if numeric >= threshold {
			profile.NumericColumns = append(profile.NumericColumns, name)
		}
	}

	return profile
}

// normalizeNumber strips formatting that spreadsheets commonly inject
// into numeric cells, e.g. thousands separators.
func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	return s
}

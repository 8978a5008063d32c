package dataprocessing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numericColumn(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%.2f", float64(i)*0.1)
	}
	return out
}

func TestSniffColumns(t *testing.T) {
	ds := NewDataset("Run", []string{"Time (s)", "Disp", "Notes"}, map[string][]string{
		"Time (s)": numericColumn(20),
		"Disp":     numericColumn(20),
		"Notes":    {"start", "mid", "end", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", ""},
	})

	p := SniffColumns(ds, 200)
	assert.Equal(t, "Run", p.Sheet)
	assert.Equal(t, []string{"Time (s)", "Disp", "Notes"}, p.Columns)
	assert.Equal(t, []string{"Time (s)"}, p.TimeCandidates)
	assert.Equal(t, []string{"Time (s)", "Disp"}, p.NumericColumns)
	assert.Equal(t, 20, p.Rows)
}

func TestSniffColumnsTimeDetection(t *testing.T) {
	ds := NewDataset("s", []string{"TIME", "timestep", "Temperature"}, map[string][]string{
		"TIME":        numericColumn(5),
		"timestep":    numericColumn(5),
		"Temperature": numericColumn(5),
	})
	p := SniffColumns(ds, 100)
	assert.Equal(t, []string{"TIME", "timestep"}, p.TimeCandidates)
}

func TestSniffColumnsSampling(t *testing.T) {
	// Numeric in the sampled head, garbage beyond it; the tail must not
	// affect classification.
	cells := numericColumn(10)
	for i := 0; i < 50; i++ {
		cells = append(cells, "n/a")
	}
	ds := NewDataset("s", []string{"F"}, map[string][]string{"F": cells})

	p := SniffColumns(ds, 10)
	assert.Equal(t, []string{"F"}, p.NumericColumns)

	p = SniffColumns(ds, 60)
	assert.Empty(t, p.NumericColumns)
}

func TestSniffColumnsThousandsSeparators(t *testing.T) {
	ds := NewDataset("s", []string{"Load"}, map[string][]string{
		"Load": {"1,250.5", "2,300", "900", "1,100.25", "750"},
	})
	p := SniffColumns(ds, 100)
	assert.Equal(t, []string{"Load"}, p.NumericColumns)
}

func TestSniffColumnsShortSheet(t *testing.T) {
	// Two parseable cells are below the floor of three, so the column
	// is not offered; three cells are just enough.
	ds := NewDataset("s", []string{"A", "B"}, map[string][]string{
		"A": {"1", "2"},
		"B": {"1", "2", "3"},
	})
	p := SniffColumns(ds, 100)
	require.NotNil(t, p)
	assert.Equal(t, []string{"B"}, p.NumericColumns)
}

func TestSniffColumnsEmptyCellsIgnored(t *testing.T) {
	ds := NewDataset("s", []string{"A"}, map[string][]string{
		"A": {"", "", "1", "2", "3", ""},
	})
	p := SniffColumns(ds, 100)
	assert.Equal(t, []string{"A"}, p.NumericColumns)
}

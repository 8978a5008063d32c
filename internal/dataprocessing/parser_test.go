package dataprocessing

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook creates a workbook whose sheets are given as row grids.
func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestSheetNames(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Run-01": {{"Time", "Disp"}},
	})
	names, err := SheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Run-01"}, names)
}

func TestSheetNamesBadFile(t *testing.T) {
	_, err := SheetNames(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestParseSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Data": {
			{"Time", "Uncontrolled", "Controlled"},
			{0.0, 1.5, 0.8},
			{0.1, 2.5, 1.2},
			{0.2, -3.0, -1.4},
		},
	})

	ds, err := ParseSheet(path, "Data")
	require.NoError(t, err)

	assert.Equal(t, "Data", ds.Sheet)
	assert.Equal(t, []string{"Time", "Uncontrolled", "Controlled"}, ds.Columns)
	assert.Equal(t, 3, ds.Rows())

	col, ok := ds.Column("Uncontrolled")
	require.True(t, ok)
	assert.Equal(t, []string{"1.5", "2.5", "-3"}, col)

	assert.True(t, ds.HasColumn("Time"))
	assert.False(t, ds.HasColumn("Ghost"))
}

func TestParseSheetDefaultsToFirstSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Only": {
			{"Time", "F"},
			{0.0, 1.0},
		},
	})
	ds, err := ParseSheet(path, "")
	require.NoError(t, err)
	assert.Equal(t, "Only", ds.Sheet)
}

func TestParseSheetMissingSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Data": {{"Time"}, {1.0}},
	})
	_, err := ParseSheet(path, "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDatasetFromRows(t *testing.T) {
	t.Run("leading blank rows skipped", func(t *testing.T) {
		ds, err := datasetFromRows("s", [][]string{
			{"", ""},
			{},
			{"Time", "F"},
			{"0", "1"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Time", "F"}, ds.Columns)
		assert.Equal(t, 1, ds.Rows())
	})

	t.Run("blank headers get positional names", func(t *testing.T) {
		ds, err := datasetFromRows("s", [][]string{
			{"Time", "", "F"},
			{"0", "x", "1"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Time", "column_2", "F"}, ds.Columns)
	})

	t.Run("duplicate headers disambiguated", func(t *testing.T) {
		ds, err := datasetFromRows("s", [][]string{
			{"F", "F", "F"},
			{"1", "2", "3"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"F", "F.1", "F.2"}, ds.Columns)
		c, _ := ds.Column("F.2")
		assert.Equal(t, []string{"3"}, c)
	})

	t.Run("ragged rows padded", func(t *testing.T) {
		ds, err := datasetFromRows("s", [][]string{
			{"Time", "F"},
			{"0"},
			{"1", "5"},
		})
		require.NoError(t, err)
		c, _ := ds.Column("F")
		assert.Equal(t, []string{"", "5"}, c)
	})

	t.Run("interior empty rows dropped", func(t *testing.T) {
		ds, err := datasetFromRows("s", [][]string{
			{"Time", "F"},
			{"0", "1"},
			{"", ""},
			{"1", "2"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, ds.Rows())
	})

	t.Run("empty sheet errors", func(t *testing.T) {
		_, err := datasetFromRows("s", [][]string{{"", ""}})
		assert.Error(t, err)
	})
}

func TestParseLargeSheet(t *testing.T) {
	rows := [][]interface{}{{"Time", "A"}}
	for i := 0; i < 500; i++ {
		rows = append(rows, []interface{}{float64(i) * 0.01, float64(i % 7)})
	}
	path := writeWorkbook(t, map[string][][]interface{}{"Big": rows})

	ds, err := ParseSheet(path, "Big")
	require.NoError(t, err)
	assert.Equal(t, 500, ds.Rows())

	col, ok := ds.Column("A")
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("%d", 6), col[6])
}

package dataprocessing

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Dataset holds one worksheet as named columns of raw cell text.
// Cells keep whatever text Excel produced; numeric coercion happens
// later, per column, so non-numeric cells can degrade to gaps instead
// of failing the whole sheet.
type Dataset struct {
	Sheet   string
	Columns []string
	cells   map[string][]string
}

// Column returns the raw cells for a named column.
func (d *Dataset) Column(name string) ([]string, bool) {
	cells, ok := d.cells[name]
	return cells, ok
}

// HasColumn reports whether the sheet declared the named column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.cells[name]
	return ok
}

// Rows returns the number of data rows below the header.
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.cells[d.Columns[0]])
}

// NewDataset builds a dataset directly from columns. Used by batch mode
// and tests; the HTTP path goes through ParseSheet.
func NewDataset(sheet string, columns []string, cells map[string][]string) *Dataset {
	return &Dataset{Sheet: sheet, Columns: columns, cells: cells}
}

// SheetNames returns the worksheet names of a workbook in file order.
func SheetNames(filePath string) ([]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

// ParseSheet reads one worksheet into a Dataset. The first row that has
// at least one non-empty cell is treated as the header; everything below
// it is data. Ragged rows are padded with empty cells so every column
// has the same length.
func ParseSheet(filePath, sheet string) (*Dataset, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		names := f.GetSheetList()
		if len(names) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = names[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q not found: %w", sheet, err)
	}

	return datasetFromRows(sheet, rows)
}

func datasetFromRows(sheet string, rows [][]string) (*Dataset, error) {
	headerRow := -1
	for i, row := range rows {
		if rowHasData(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("sheet %q contains no data", sheet)
	}

	header := rows[headerRow]
	columns := make([]string, 0, len(header))
	seen := make(map[string]int, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", j+1)
		}
		// Disambiguate duplicate headers the way spreadsheets usually do
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		columns = append(columns, name)
	}

	cells := make(map[string][]string, len(columns))
	for _, name := range columns {
		cells[name] = make([]string, 0, len(rows)-headerRow-1)
	}

	for _, row := range rows[headerRow+1:] {
		if !rowHasData(row) {
			continue
		}
		for j, name := range columns {
			var v string
			if j < len(row) {
				v = strings.TrimSpace(row[j])
			}
			cells[name] = append(cells[name], v)
		}
	}

	return &Dataset{Sheet: sheet, Columns: columns, cells: cells}, nil
}

func rowHasData(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

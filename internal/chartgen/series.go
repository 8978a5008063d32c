package chartgen

import (
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Dataset is the tabular input a chart is rendered from. Column returns
// the raw cell text for a named column, preserving row order.
type Dataset interface {
	Column(name string) ([]string, bool)
	HasColumn(name string) bool
}

// DataSeries is one plottable series after coercion and smoothing.
// X and Y have equal length; cells that failed to parse are NaN so the
// row positions of valid samples are preserved.
type DataSeries struct {
	Label string
	X     []float64
	Y     []float64
	Color drawing.Color
}

// CoerceNumeric converts raw cells to floats. Unparseable or empty cells
// become NaN rather than being dropped, keeping series aligned with the
// shared axis column.
func CoerceNumeric(cells []string) []float64 {
	out := make([]float64, len(cells))
	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		cell = strings.ReplaceAll(cell, ",", "")
		if cell == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out
}

// ValidCount returns the number of finite samples in y.
func ValidCount(y []float64) int {
	n := 0
	for _, v := range y {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			n++
		}
	}
	return n
}

// PeakIndex returns the index of the maximum absolute finite value in y,
// first occurrence winning ties. Returns -1 when no finite sample exists.
func PeakIndex(y []float64) int {
	best := -1
	bestAbs := math.Inf(-1)
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if a := math.Abs(v); a > bestAbs {
			bestAbs = a
			best = i
		}
	}
	return best
}

// PeakValue returns the signed value at the absolute peak of y, or NaN
// when the series has no finite samples.
func PeakValue(y []float64) float64 {
	i := PeakIndex(y)
	if i < 0 {
		return math.NaN()
	}
	return y[i]
}

// FiniteMinMax returns the finite extremes of vs. ok is false when no
// finite sample exists.
func FiniteMinMax(vs []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// segments splits a series into runs of consecutive rows where both x
// and y are finite. Each run renders as its own line so gaps in the
// data show as breaks instead of bogus connecting strokes.
func segments(x, y []float64) [][2][]float64 {
	var runs [][2][]float64
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= 1 {
			runs = append(runs, [2][]float64{x[start:end], y[start:end]})
		}
		start = -1
	}
	for i := range y {
		finite := !math.IsNaN(x[i]) && !math.IsInf(x[i], 0) &&
			!math.IsNaN(y[i]) && !math.IsInf(y[i], 0)
		if finite && start < 0 {
			start = i
		}
		if !finite {
			flush(i)
		}
	}
	flush(len(y))
	return runs
}

package chartgen

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SmoothingMethod selects the smoothing filter applied to a series
// before plotting.
type SmoothingMethod string

const (
	SmoothingNone          SmoothingMethod = ""
	SmoothingMovingAverage SmoothingMethod = "ma"
	SmoothingSavitzkyGolay SmoothingMethod = "savgol"
)

// SmoothingSpec carries the filter parameters. Zero values fall back to
// the defaults applied by ChartConfig normalization.
type SmoothingSpec struct {
	Method       SmoothingMethod `json:"method"`
	K            int             `json:"k"`
	WindowLength int             `json:"window_length"`
	PolyOrder    int             `json:"polyorder"`
}

// Smooth applies the configured filter to y and returns a series of the
// same length. Smoothing is best effort: inputs the filter cannot handle
// (short series, degenerate parameters) come back unchanged rather than
// erroring, so a bad smoothing choice never kills a chart.
func Smooth(y []float64, spec SmoothingSpec) []float64 {
	switch spec.Method {
	case SmoothingMovingAverage:
		return movingAverage(y, spec.K)
	case SmoothingSavitzkyGolay:
		return savitzkyGolay(y, spec.WindowLength, spec.PolyOrder)
	default:
		return y
	}
}

// movingAverage is a centered uniform filter. The output is the "same"
// convolution: edges see an implicitly zero-padded input, so the first
// and last few samples are damped toward zero. k below 1 is clamped to
// 1, which is the identity.
func movingAverage(y []float64, k int) []float64 {
	if k < 1 {
		k = 1
	}
	if k == 1 || len(y) == 0 {
		return y
	}

	out := make([]float64, len(y))
	offset := (k - 1) / 2
	inv := 1.0 / float64(k)
	for i := range y {
		sum := 0.0
		for m := 0; m < k; m++ {
			j := i + offset - m
			if j < 0 || j >= len(y) {
				continue // zero padding
			}
			sum += y[j]
		}
		out[i] = sum * inv
	}
	return out
}

// savitzkyGolay fits a local polynomial of order polyOrder in a sliding
// window and evaluates it at the window center. The window length is
// clamped to an odd value within [3, len(y)]; edges are handled by
// evaluating the first and last window's fit at the edge positions, so
// a polynomial of degree <= polyOrder passes through unchanged.
func savitzkyGolay(y []float64, windowLength, polyOrder int) []float64 {
	n := len(y)
	if n < 3 {
		return y
	}

	wl := windowLength
	if wl < 3 {
		wl = 3
	}
	if wl%2 == 0 {
		wl++
	}
	largestOdd := n
	if largestOdd%2 == 0 {
		largestOdd--
	}
	if wl > largestOdd {
		wl = largestOdd
	}
	if wl < 3 {
		return y
	}
	if polyOrder < 0 || polyOrder >= wl {
		return y
	}
	if n < wl {
		return y
	}

	hat, ok := savgolHatMatrix(wl, polyOrder)
	if !ok {
		return y
	}

	half := (wl - 1) / 2
	out := make([]float64, n)

	apply := func(row int, window []float64) float64 {
		sum := 0.0
		for j := 0; j < wl; j++ {
			sum += hat.At(row, j) * window[j]
		}
		return sum
	}

	// Interior: center row of the hat matrix over a sliding window.
	for i := half; i < n-half; i++ {
		out[i] = apply(half, y[i-half:i+half+1])
	}
	// Edges: fit the first/last full window, evaluate at edge positions.
	for i := 0; i < half; i++ {
		out[i] = apply(i, y[:wl])
		out[n-1-i] = apply(wl-1-i, y[n-wl:])
	}

	return out
}

// savgolHatMatrix returns H = A (A^T A)^-1 A^T for the Vandermonde
// design matrix A over window positions -h..h. Row r of H gives the
// filter weights that evaluate the window's least-squares polynomial at
// position r.
func savgolHatMatrix(wl, polyOrder int) (*mat.Dense, bool) {
	a := mat.NewDense(wl, polyOrder+1, nil)
	half := (wl - 1) / 2
	for i := 0; i < wl; i++ {
		z := float64(i - half)
		p := 1.0
		for j := 0; j <= polyOrder; j++ {
			a.Set(i, j, p)
			p *= z
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)

	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, false
	}

	var hat mat.Dense
	hat.Product(a, &inv, a.T())

	// Guard against numerical blowups on extreme parameters.
	for i := 0; i < wl; i++ {
		for j := 0; j < wl; j++ {
			if math.IsNaN(hat.At(i, j)) || math.IsInf(hat.At(i, j), 0) {
				return nil, false
			}
		}
	}

	return &hat, true
}

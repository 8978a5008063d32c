package chartgen

import (
	"fmt"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// peakEpsilon is the magnitude below which a reference peak is treated
// as zero, leaving the reduction undefined instead of exploding.
const peakEpsilon = 1e-12

// Metrics summarizes a reference/comparison series pair.
type Metrics struct {
	PeakRef      float64
	PeakCmp      float64
	ReductionPct float64
	// ReductionDefined is false when the reference peak is ~zero and the
	// percentage has no meaning.
	ReductionDefined bool
}

// ComputeMetrics compares the absolute peaks of a reference series and
// a comparison series. NaN samples are ignored.
func ComputeMetrics(ref, cmp []float64) Metrics {
	m := Metrics{
		PeakRef: absPeak(ref),
		PeakCmp: absPeak(cmp),
	}
	if !math.IsNaN(m.PeakRef) && m.PeakRef > peakEpsilon && !math.IsNaN(m.PeakCmp) {
		m.ReductionPct = (m.PeakRef - m.PeakCmp) / m.PeakRef * 100
		m.ReductionDefined = true
	}
	return m
}

func absPeak(y []float64) float64 {
	v := PeakValue(y)
	if math.IsNaN(v) {
		return math.NaN()
	}
	return math.Abs(v)
}

// Anchor selects the figure corner a decoration is pinned to.
type Anchor string

const (
	AnchorUpperLeft  Anchor = "upper-left"
	AnchorUpperRight Anchor = "upper-right"
	AnchorLowerLeft  Anchor = "lower-left"
	AnchorLowerRight Anchor = "lower-right"
)

// MetricsBoxElement returns a Renderable that draws the peak comparison
// summary in the given corner of the plot area. refLabel and cmpLabel
// name the two series in the box text.
func MetricsBoxElement(m Metrics, refLabel, cmpLabel string, anchor Anchor, fontSize float64) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		lines := []string{
			fmt.Sprintf("peak %s = %.4g", refLabel, m.PeakRef),
			fmt.Sprintf("peak %s = %.4g", cmpLabel, m.PeakCmp),
		}
		if m.ReductionDefined {
			lines = append(lines, fmt.Sprintf("reduction = %.1f%%", m.ReductionPct))
		} else {
			lines = append(lines, "reduction = n/a")
		}

		font := defaults.GetFont()
		if font == nil {
			var err error
			font, err = chart.GetDefaultFont()
			if err != nil {
				return
			}
		}
		if fontSize == 0 {
			fontSize = 9.5
		}
		r.SetFont(font)
		r.SetFontSize(fontSize)

		const pad = 6
		const lineGap = 4

		maxW, totalH := 0, 0
		heights := make([]int, len(lines))
		for i, line := range lines {
			tb := r.MeasureText(line)
			if tb.Width() > maxW {
				maxW = tb.Width()
			}
			heights[i] = tb.Height()
			totalH += tb.Height()
		}
		totalH += lineGap * (len(lines) - 1)

		boxW := maxW + 2*pad
		boxH := totalH + 2*pad

		const inset = 10
		var left, top int
		switch anchor {
		case AnchorUpperLeft:
			left, top = canvasBox.Left+inset, canvasBox.Top+inset
		case AnchorUpperRight:
			left, top = canvasBox.Right-inset-boxW, canvasBox.Top+inset
		case AnchorLowerLeft:
			left, top = canvasBox.Left+inset, canvasBox.Bottom-inset-boxH
		default: // lower-right
			left, top = canvasBox.Right-inset-boxW, canvasBox.Bottom-inset-boxH
		}

		r.SetFillColor(drawing.ColorWhite.WithAlpha(230))
		r.SetStrokeColor(drawing.ColorFromHex("808080"))
		r.SetStrokeWidth(1.0)
		r.MoveTo(left, top)
		r.LineTo(left+boxW, top)
		r.LineTo(left+boxW, top+boxH)
		r.LineTo(left, top+boxH)
		r.Close()
		r.FillStroke()

		r.SetFontColor(drawing.ColorFromHex("202020"))
		y := top + pad
		for i, line := range lines {
			y += heights[i]
			r.Text(line, left+pad, y)
			y += lineGap
		}
	}
}

// AnchorFromLegendLoc maps a legend location keyword onto a corner,
// defaulting to the lower right where loops and decaying histories
// leave the most empty space. Both the space-separated form ("upper
// left") and the dashed form ("upper-left") are accepted.
func AnchorFromLegendLoc(loc string) Anchor {
	switch Anchor(strings.ReplaceAll(loc, " ", "-")) {
	case AnchorUpperLeft:
		return AnchorUpperLeft
	case AnchorUpperRight:
		return AnchorUpperRight
	case AnchorLowerLeft:
		return AnchorLowerLeft
	case AnchorLowerRight:
		return AnchorLowerRight
	default:
		return AnchorLowerRight
	}
}

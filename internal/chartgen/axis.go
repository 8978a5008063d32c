package chartgen

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
)

// AxisLimit is a requested limit pair where a nil end means "derive
// from the data". Decoded from JSON [lo, hi] pairs with null entries.
type AxisLimit struct {
	Lo *float64
	Hi *float64
}

// ResolvedLimits is a concrete axis range after limit resolution.
type ResolvedLimits struct {
	Lo float64
	Hi float64
}

// Span returns the width of the resolved range.
func (l ResolvedLimits) Span() float64 { return l.Hi - l.Lo }

// Range converts the limits into the chart library's range type.
func (l ResolvedLimits) Range() *chart.ContinuousRange {
	return &chart.ContinuousRange{Min: l.Lo, Max: l.Hi}
}

// defaultPadFrac is the fractional padding applied to fully automatic
// ranges so extremes don't sit on the plot border.
const defaultPadFrac = 0.05

// ResolveLimits combines data extremes with the user's requested limits.
//
// Rules, in order:
//   - no finite data and both ends auto: nil, let the library autoscale
//   - degenerate data (min == max): synthesize a span around the value
//   - explicit ends always win, even when outside the data
//   - both ends auto with autoPad: pad by padFrac; a range spanning zero
//     is made symmetric about zero first
func ResolveLimits(dataLo, dataHi float64, req AxisLimit, padFrac float64, autoPad bool) *ResolvedLimits {
	hasData := !math.IsNaN(dataLo) && !math.IsNaN(dataHi) &&
		!math.IsInf(dataLo, 0) && !math.IsInf(dataHi, 0)

	if !hasData && req.Lo == nil && req.Hi == nil {
		return nil
	}

	if hasData && dataLo == dataHi {
		pad := 0.5
		if dataLo != 0 {
			pad = math.Abs(dataLo) * 0.2
		}
		dataLo -= pad
		dataHi += pad
	}

	lo, hi := dataLo, dataHi
	if !hasData {
		lo, hi = 0, 1
	}

	if req.Lo == nil && req.Hi == nil && autoPad {
		if padFrac <= 0 {
			padFrac = defaultPadFrac
		}
		if lo < 0 && hi > 0 {
			m := math.Max(math.Abs(lo), math.Abs(hi)) * (1 + padFrac)
			lo, hi = -m, m
		} else {
			span := hi - lo
			lo -= span * padFrac
			hi += span * padFrac
		}
	}

	if req.Lo != nil {
		lo = *req.Lo
	}
	if req.Hi != nil {
		hi = *req.Hi
	}

	if lo >= hi {
		// Inverted or collapsed request; synthesize a usable span.
		mid := lo
		lo, hi = mid-0.5, mid+0.5
	}

	return &ResolvedLimits{Lo: lo, Hi: hi}
}

// MajorTicks places ticks at multiples of step within the range. When
// step is zero or would produce an absurd tick count, a nice step is
// chosen automatically.
func MajorTicks(limits ResolvedLimits, step float64) []chart.Tick {
	if step <= 0 || limits.Span()/step > 1000 {
		step = niceStep(limits.Lo, limits.Hi)
	}
	if step <= 0 {
		return nil
	}

	first := math.Ceil(limits.Lo/step) * step
	var ticks []chart.Tick
	for v := first; v <= limits.Hi+step*1e-9; v += step {
		// Clean up float drift so labels read as exact multiples
		v = math.Round(v/step) * step
		if v < limits.Lo-step*1e-9 {
			continue
		}
		ticks = append(ticks, chart.Tick{Value: v, Label: FormatTick(v)})
	}
	if len(ticks) < 2 {
		// The chart library requires at least two ticks per axis.
		return []chart.Tick{
			{Value: limits.Lo, Label: FormatTick(limits.Lo)},
			{Value: limits.Hi, Label: FormatTick(limits.Hi)},
		}
	}
	return ticks
}

// GridLines builds the full set of axis gridlines: majors at each tick,
// optional minors at tick midpoints, and an optional emphasized zero
// line when the range spans zero.
func GridLines(limits ResolvedLimits, ticks []chart.Tick, showMinor, zeroLine bool, minorStyle, zeroStyle chart.Style) []chart.GridLine {
	var lines []chart.GridLine

	for _, t := range ticks {
		lines = append(lines, chart.GridLine{Value: t.Value})
	}

	if showMinor {
		for i := 0; i+1 < len(ticks); i++ {
			mid := (ticks[i].Value + ticks[i+1].Value) / 2
			lines = append(lines, chart.GridLine{Value: mid, IsMinor: true, Style: minorStyle})
		}
	}

	if zeroLine && limits.Lo < 0 && limits.Hi > 0 {
		lines = append(lines, chart.GridLine{Value: 0, Style: zeroStyle})
	}

	return lines
}

// EqualAspect widens the narrower of the two ranges so one data unit
// maps to the same number of pixels on both axes. plotW and plotH are
// the pixel dimensions of the plot area.
func EqualAspect(x, y ResolvedLimits, plotW, plotH int) (ResolvedLimits, ResolvedLimits) {
	if plotW <= 0 || plotH <= 0 || x.Span() <= 0 || y.Span() <= 0 {
		return x, y
	}

	unitsPerPxX := x.Span() / float64(plotW)
	unitsPerPxY := y.Span() / float64(plotH)

	if unitsPerPxX > unitsPerPxY {
		// X is denser; widen Y about its center.
		want := unitsPerPxX * float64(plotH)
		grow := (want - y.Span()) / 2
		y = ResolvedLimits{Lo: y.Lo - grow, Hi: y.Hi + grow}
	} else if unitsPerPxY > unitsPerPxX {
		want := unitsPerPxY * float64(plotW)
		grow := (want - x.Span()) / 2
		x = ResolvedLimits{Lo: x.Lo - grow, Hi: x.Hi + grow}
	}

	return x, y
}

// niceStep picks a tick interval from the 1/2/2.5/5 ladder that yields
// roughly 5-9 ticks over the range.
func niceStep(lo, hi float64) float64 {
	span := hi - lo
	if span <= 0 || math.IsInf(span, 0) || math.IsNaN(span) {
		return 0
	}

	raw := span / 6
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	norm := raw / mag

	var step float64
	switch {
	case norm < 1.5:
		step = 1
	case norm < 2.25:
		step = 2
	case norm < 3.5:
		step = 2.5
	case norm < 7.5:
		step = 5
	default:
		step = 10
	}
	return step * mag
}

// FormatTick renders an axis value with just enough precision to
// distinguish neighboring ticks.
func FormatTick(v float64) string {
	av := math.Abs(v)
	switch {
	case v == 0:
		return "0"
	case av >= 1e6 || (av < 1e-3 && av > 0):
		return fmt.Sprintf("%.2g", v)
	case av >= 100:
		return fmt.Sprintf("%.0f", v)
	case av >= 1:
		return trimZeros(fmt.Sprintf("%.2f", v))
	default:
		return trimZeros(fmt.Sprintf("%.3f", v))
	}
}

func trimZeros(s string) string {
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

package chartgen

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// annotationOffsets are the candidate label positions relative to the
// anchor point, in pixels with y pointing up. Tried in order; the first
// one whose label box collides with nothing already placed wins.
var annotationOffsets = [][2]int{
	{6, 10}, {0, 14}, {0, -18}, {14, 0}, {-18, 0},
	{10, 12}, {-12, 10}, {12, -10}, {-10, -12}, {22, 6}, {-22, 6},
}

const (
	// annotationBoxPad is the padding between label text and its box.
	annotationBoxPad = 3
	// annotationCollidePad is the extra margin required between boxes.
	annotationCollidePad = 2
)

// AnnotationLayout accumulates the label boxes already placed on one
// figure so later annotations can route around them. One layout is
// shared by all annotation series of a figure and must not be reused
// across render passes.
type AnnotationLayout struct {
	placed []chart.Box
}

// NewAnnotationLayout returns an empty layout.
func NewAnnotationLayout() *AnnotationLayout {
	return &AnnotationLayout{}
}

// Place finds a label position near the anchor. It walks the candidate
// offsets and returns the first collision-free box; when every
// candidate collides it falls back to the first offset so the label is
// still drawn. The chosen box is recorded either way.
func (l *AnnotationLayout) Place(anchorX, anchorY, textW, textH int) (lx, ly int, box chart.Box, fallback bool) {
	for _, off := range annotationOffsets {
		cx := anchorX + off[0]
		cy := anchorY - off[1] // screen y grows downward
		b := labelBox(cx, cy, textW, textH)
		if !l.collides(b) {
			l.placed = append(l.placed, b)
			return cx, cy, b, false
		}
	}

	off := annotationOffsets[0]
	cx := anchorX + off[0]
	cy := anchorY - off[1]
	b := labelBox(cx, cy, textW, textH)
	l.placed = append(l.placed, b)
	return cx, cy, b, true
}

// PlacedCount returns the number of labels committed so far.
func (l *AnnotationLayout) PlacedCount() int { return len(l.placed) }

func (l *AnnotationLayout) collides(b chart.Box) bool {
	for _, p := range l.placed {
		if boxesOverlap(b, p, annotationCollidePad) {
			return true
		}
	}
	return false
}

// labelBox is the padded box for text whose baseline starts at (x, y).
func labelBox(x, y, textW, textH int) chart.Box {
	return chart.Box{
		Left:   x - annotationBoxPad,
		Top:    y - textH - annotationBoxPad,
		Right:  x + textW + annotationBoxPad,
		Bottom: y + annotationBoxPad,
	}
}

// boxesOverlap reports whether two boxes are closer than pad pixels.
func boxesOverlap(a, b chart.Box, pad int) bool {
	if a.Right+pad <= b.Left || b.Right+pad <= a.Left {
		return false
	}
	if a.Bottom+pad <= b.Top || b.Bottom+pad <= a.Top {
		return false
	}
	return true
}

// PeakAnnotation marks the maximum-magnitude sample of a series with a
// dot and a boxed value label. It renders as an overlay series so it
// receives the figure's axis ranges and can translate the data-space
// peak into pixel space.
type PeakAnnotation struct {
	SeriesLabel string
	X           []float64
	Y           []float64
	Color       drawing.Color
	Layout      *AnnotationLayout
	FontSize    float64
}

// GetName implements chart.Series. Empty so the overlay stays out of
// the legend.
func (pa *PeakAnnotation) GetName() string { return "" }

// GetYAxis implements chart.Series.
func (pa *PeakAnnotation) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }

// GetStyle implements chart.Series.
func (pa *PeakAnnotation) GetStyle() chart.Style {
	return chart.Style{StrokeColor: pa.Color, StrokeWidth: 1.0}
}

// Validate implements chart.Series.
func (pa *PeakAnnotation) Validate() error {
	if len(pa.X) != len(pa.Y) {
		return fmt.Errorf("peak annotation: x/y length mismatch")
	}
	return nil
}

// Render implements chart.Series.
func (pa *PeakAnnotation) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, style chart.Style) {
	idx := PeakIndex(pa.Y)
	if idx < 0 || pa.Layout == nil {
		return
	}
	xv, yv := pa.X[idx], pa.Y[idx]
	if math.IsNaN(xv) || math.IsInf(xv, 0) {
		return
	}

	anchorX := canvasBox.Left + xrange.Translate(xv)
	anchorY := canvasBox.Bottom - yrange.Translate(yv)

	// Peak marker
	r.SetFillColor(pa.Color)
	r.Circle(3.5, anchorX, anchorY)
	r.Fill()

	// Label text and box
	text := annotationText(pa.SeriesLabel, yv)
	font := style.GetFont()
	if font == nil {
		var err error
		font, err = chart.GetDefaultFont()
		if err != nil {
			return
		}
	}
	fontSize := pa.FontSize
	if fontSize == 0 {
		fontSize = 9
	}
	r.SetFont(font)
	r.SetFontSize(fontSize)
	tb := r.MeasureText(text)

	lx, ly, box, _ := pa.Layout.Place(anchorX, anchorY, tb.Width(), tb.Height())

	// Leader from anchor to the near corner of the label box
	r.SetStrokeColor(pa.Color.WithAlpha(180))
	r.SetStrokeWidth(0.8)
	r.MoveTo(anchorX, anchorY)
	r.LineTo(nearestEdgeX(box, anchorX), nearestEdgeY(box, anchorY))
	r.Stroke()

	// Label background
	r.SetFillColor(drawing.ColorWhite.WithAlpha(217))
	r.SetStrokeColor(drawing.ColorFromHex("9a9a9a"))
	r.SetStrokeWidth(0.8)
	r.MoveTo(box.Left, box.Top)
	r.LineTo(box.Right, box.Top)
	r.LineTo(box.Right, box.Bottom)
	r.LineTo(box.Left, box.Bottom)
	r.Close()
	r.FillStroke()

	r.SetFontColor(drawing.ColorFromHex("202020"))
	r.Text(text, lx, ly)
}

// annotationText formats the label for an annotated peak. The series
// label and separator appear only when a label was supplied.
func annotationText(label string, v float64) string {
	if label == "" {
		return fmt.Sprintf("%.3g", v)
	}
	return fmt.Sprintf("%s: %.3g", label, v)
}

func nearestEdgeX(b chart.Box, x int) int {
	if x < b.Left {
		return b.Left
	}
	if x > b.Right {
		return b.Right
	}
	return x
}

func nearestEdgeY(b chart.Box, y int) int {
	if y < b.Top {
		return b.Top
	}
	if y > b.Bottom {
		return b.Bottom
	}
	return y
}

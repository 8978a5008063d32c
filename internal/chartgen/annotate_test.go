package chartgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2"
)

func TestBoxesOverlap(t *testing.T) {
	a := chart.Box{Left: 0, Top: 0, Right: 10, Bottom: 10}

	tests := []struct {
		name string
		b    chart.Box
		pad  int
		want bool
	}{
		{"identical", a, 0, true},
		{"partial overlap", chart.Box{Left: 5, Top: 5, Right: 15, Bottom: 15}, 0, true},
		{"touching edges do not overlap", chart.Box{Left: 10, Top: 0, Right: 20, Bottom: 10}, 0, false},
		{"separated", chart.Box{Left: 30, Top: 30, Right: 40, Bottom: 40}, 0, false},
		{"separated but within pad", chart.Box{Left: 11, Top: 0, Right: 20, Bottom: 10}, 2, true},
		{"clear of pad", chart.Box{Left: 13, Top: 0, Right: 20, Bottom: 10}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, boxesOverlap(a, tt.b, tt.pad))
			assert.Equal(t, tt.want, boxesOverlap(tt.b, a, tt.pad), "overlap must be symmetric")
		})
	}
}

func TestAnnotationLayoutPlace(t *testing.T) {
	t.Run("first label takes the preferred offset", func(t *testing.T) {
		l := NewAnnotationLayout()
		lx, ly, _, fallback := l.Place(100, 100, 40, 12)
		assert.False(t, fallback)
		assert.Equal(t, 100+annotationOffsets[0][0], lx)
		assert.Equal(t, 100-annotationOffsets[0][1], ly)
		assert.Equal(t, 1, l.PlacedCount())
	})

	t.Run("same anchor twice picks different positions", func(t *testing.T) {
		l := NewAnnotationLayout()
		x1, y1, b1, f1 := l.Place(200, 200, 40, 12)
		x2, y2, b2, f2 := l.Place(200, 200, 40, 12)
		assert.False(t, f1)
		assert.False(t, f2)
		assert.False(t, x1 == x2 && y1 == y2)
		assert.False(t, boxesOverlap(b1, b2, annotationCollidePad))
	})

	t.Run("crowded anchor falls back rather than dropping the label", func(t *testing.T) {
		l := NewAnnotationLayout()
		sawFallback := false
		// Far more labels than candidate offsets, all on one anchor.
		for i := 0; i < len(annotationOffsets)+3; i++ {
			_, _, _, fb := l.Place(300, 300, 60, 14)
			if fb {
				sawFallback = true
			}
		}
		assert.True(t, sawFallback)
		assert.Equal(t, len(annotationOffsets)+3, l.PlacedCount())
	})

	t.Run("distant anchors never interact", func(t *testing.T) {
		l := NewAnnotationLayout()
		_, _, b1, f1 := l.Place(0, 0, 30, 10)
		_, _, b2, f2 := l.Place(1000, 1000, 30, 10)
		assert.False(t, f1)
		assert.False(t, f2)
		assert.False(t, boxesOverlap(b1, b2, annotationCollidePad))
	})
}

func TestLabelBox(t *testing.T) {
	b := labelBox(50, 80, 40, 12)
	assert.Equal(t, 50-annotationBoxPad, b.Left)
	assert.Equal(t, 50+40+annotationBoxPad, b.Right)
	assert.Equal(t, 80-12-annotationBoxPad, b.Top)
	assert.Equal(t, 80+annotationBoxPad, b.Bottom)
}

func TestPeakAnnotationValidate(t *testing.T) {
	pa := &PeakAnnotation{X: []float64{1, 2}, Y: []float64{1}}
	require.Error(t, pa.Validate())

	pa = &PeakAnnotation{X: []float64{1, 2}, Y: []float64{3, 4}}
	require.NoError(t, pa.Validate())
	assert.Empty(t, pa.GetName(), "annotation overlays must stay out of the legend")
}

func TestAnnotationText(t *testing.T) {
	assert.Equal(t, "Controlled: -7", annotationText("Controlled", -7))
	assert.Equal(t, "Disp: 1.23", annotationText("Disp", 1.234))
	// No label means no separator either.
	assert.Equal(t, "-7", annotationText("", -7))
	assert.Equal(t, "0.5", annotationText("", 0.5))
}

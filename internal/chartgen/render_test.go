package chartgen

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapDataset is a minimal in-memory Dataset for renderer tests.
type mapDataset map[string][]string

func (d mapDataset) Column(name string) ([]string, bool) {
	c, ok := d[name]
	return c, ok
}

func (d mapDataset) HasColumn(name string) bool {
	_, ok := d[name]
	return ok
}

func sineDataset(n int) mapDataset {
	timeCol := make([]string, n)
	ref := make([]string, n)
	ctl := make([]string, n)
	for i := 0; i < n; i++ {
		t := float64(i) * 0.02
		timeCol[i] = fmt.Sprintf("%.3f", t)
		ref[i] = fmt.Sprintf("%.5f", 2.0*osc(t))
		ctl[i] = fmt.Sprintf("%.5f", 1.2*osc(t*1.1))
	}
	return mapDataset{"Time": timeCol, "Reference": ref, "Controlled": ctl}
}

func osc(t float64) float64 {
	// cheap oscillation without importing math here
	v := t - float64(int(t))
	return 4*v*(1-v)*2 - 1
}

func timeseriesConfig() *ChartConfig {
	cfg := &ChartConfig{
		Kind:          ChartTimeseries,
		TimeColumn:    "Time",
		SeriesColumns: []string{"Reference", "Controlled"},
	}
	cfg.Normalize()
	return cfg
}

func TestPrepareSeries(t *testing.T) {
	r := NewRenderer(nil, nil)
	ds := sineDataset(50)

	t.Run("series share the axis column", func(t *testing.T) {
		series, err := r.PrepareSeries(ds, timeseriesConfig())
		require.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, "Reference", series[0].Label)
		assert.Equal(t, "Controlled", series[1].Label)
		assert.Equal(t, series[0].X, series[1].X)
		assert.Len(t, series[0].Y, 50)
	})

	t.Run("labels override column names", func(t *testing.T) {
		cfg := timeseriesConfig()
		cfg.Labels = []string{"uncontrolled"}
		series, err := r.PrepareSeries(ds, cfg)
		require.NoError(t, err)
		assert.Equal(t, "uncontrolled", series[0].Label)
		assert.Equal(t, "Controlled", series[1].Label)
	})

	t.Run("missing axis column", func(t *testing.T) {
		cfg := timeseriesConfig()
		cfg.TimeColumn = "Zeit"
		_, err := r.PrepareSeries(ds, cfg)
		var mce *MissingColumnError
		require.ErrorAs(t, err, &mce)
		assert.Equal(t, "Zeit", mce.Column)
	})

	t.Run("missing value column", func(t *testing.T) {
		cfg := timeseriesConfig()
		cfg.SeriesColumns = []string{"Reference", "Ghost"}
		_, err := r.PrepareSeries(ds, cfg)
		var mce *MissingColumnError
		require.ErrorAs(t, err, &mce)
		assert.Equal(t, "Ghost", mce.Column)
	})

	t.Run("entirely non-numeric data", func(t *testing.T) {
		bad := mapDataset{
			"Time":      {"a", "b", "c"},
			"Reference": {"x", "y", "z"},
		}
		cfg := timeseriesConfig()
		cfg.SeriesColumns = []string{"Reference"}
		_, err := r.PrepareSeries(bad, cfg)
		assert.ErrorIs(t, err, ErrNoNumericData)
	})

	t.Run("series colors cycle through the palette", func(t *testing.T) {
		series, err := r.PrepareSeries(ds, timeseriesConfig())
		require.NoError(t, err)
		assert.NotEqual(t, series[0].Color, series[1].Color)
	})
}

func TestFigure(t *testing.T) {
	r := NewRenderer(nil, nil)
	ds := sineDataset(80)

	t.Run("dimensions derive from physical size and dpi", func(t *testing.T) {
		cfg := timeseriesConfig()
		graph, err := r.Figure(ds, cfg, 120)
		require.NoError(t, err)
		// 16 cm at 120 dpi
		assert.Equal(t, 756, graph.Width)
		assert.Equal(t, 425, graph.Height)
		assert.Equal(t, 120.0, graph.DPI)
	})

	t.Run("annotations add overlay series", func(t *testing.T) {
		cfg := timeseriesConfig()
		plain, err := r.Figure(ds, cfg, 100)
		require.NoError(t, err)

		cfg.AnnotatePeaks = true
		annotated, err := r.Figure(ds, cfg, 100)
		require.NoError(t, err)
		assert.Equal(t, len(plain.Series)+2, len(annotated.Series))
	})

	t.Run("metrics box requires two series", func(t *testing.T) {
		cfg := timeseriesConfig()
		cfg.SeriesColumns = []string{"Reference"}
		cfg.MetricsBox = true
		graph, err := r.Figure(ds, cfg, 100)
		require.NoError(t, err)
		// legend only
		assert.Len(t, graph.Elements, 1)

		cfg = timeseriesConfig()
		cfg.MetricsBox = true
		graph, err = r.Figure(ds, cfg, 100)
		require.NoError(t, err)
		assert.Len(t, graph.Elements, 2)
	})

	t.Run("hysteresis axes are symmetric about zero", func(t *testing.T) {
		cfg := &ChartConfig{
			Kind:     ChartHysteresis,
			XColumn:  "Reference",
			YColumns: []string{"Controlled"},
		}
		cfg.Normalize()
		graph, err := r.Figure(ds, cfg, 100)
		require.NoError(t, err)
		require.NotNil(t, graph.XAxis.Range)
		assert.InDelta(t, -graph.XAxis.Range.GetMin(), graph.XAxis.Range.GetMax(), 1e-9)
		assert.InDelta(t, -graph.YAxis.Range.GetMin(), graph.YAxis.Range.GetMax(), 1e-9)
	})

	t.Run("one-sided hysteresis data keeps its padded extent", func(t *testing.T) {
		oneSided := mapDataset{
			"Disp":  {"5", "6", "7", "8", "9", "10"},
			"Force": {"100", "110", "120", "130", "140", "150"},
		}
		cfg := &ChartConfig{
			Kind:     ChartHysteresis,
			XColumn:  "Disp",
			YColumns: []string{"Force"},
		}
		cfg.Normalize()
		graph, err := r.Figure(oneSided, cfg, 100)
		require.NoError(t, err)
		// 5% padding on each side of the data, never mirrored about zero
		assert.InDelta(t, 4.75, graph.XAxis.Range.GetMin(), 1e-9)
		assert.InDelta(t, 10.25, graph.XAxis.Range.GetMax(), 1e-9)
		assert.InDelta(t, 97.5, graph.YAxis.Range.GetMin(), 1e-9)
		assert.InDelta(t, 152.5, graph.YAxis.Range.GetMax(), 1e-9)
	})
}

func TestRenderOutputs(t *testing.T) {
	r := NewRenderer(nil, nil)
	ds := sineDataset(60)

	t.Run("png renders and decodes", func(t *testing.T) {
		data, err := r.RenderPNG(ds, timeseriesConfig(), 72)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 454, img.Bounds().Dx())
	})

	t.Run("svg output is xml", func(t *testing.T) {
		data, err := r.RenderSVG(ds, timeseriesConfig(), 72)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<svg")
	})

	t.Run("preview data uri decodes to a png", func(t *testing.T) {
		uri, err := r.PreviewDataURI(ds, timeseriesConfig())
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
		require.NoError(t, err)
		_, err = png.Decode(bytes.NewReader(raw))
		assert.NoError(t, err)
	})

	t.Run("preview honors an explicit dpi override", func(t *testing.T) {
		cfg := timeseriesConfig()
		cfg.DPI = 72
		uri, err := r.PreviewDataURI(ds, cfg)
		require.NoError(t, err)
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, 454, img.Bounds().Dx())
	})
}

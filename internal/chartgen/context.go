package chartgen

import (
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// RenderContext holds the shared visual defaults for every figure:
// the series color cycle, grid styling, and the DPI presets for the
// preview and export paths.
type RenderContext struct {
	Palette []drawing.Color

	GridStyle      chart.Style
	MinorGridStyle chart.Style
	ZeroLineStyle  chart.Style

	FontSize   float64
	PreviewDPI int
	ExportDPI  int
}

// NewRenderContext returns the standard engineering-report styling.
func NewRenderContext() *RenderContext {
	return &RenderContext{
		Palette: []drawing.Color{
			drawing.ColorFromHex("1f77b4"),
			drawing.ColorFromHex("ff7f0e"),
			drawing.ColorFromHex("2ca02c"),
			drawing.ColorFromHex("d62728"),
			drawing.ColorFromHex("9467bd"),
			drawing.ColorFromHex("8c564b"),
			drawing.ColorFromHex("e377c2"),
			drawing.ColorFromHex("7f7f7f"),
			drawing.ColorFromHex("bcbd22"),
			drawing.ColorFromHex("17becf"),
		},
		GridStyle: chart.Style{
			StrokeColor: drawing.ColorFromHex("d0d0d0"),
			StrokeWidth: 1.0,
		},
		MinorGridStyle: chart.Style{
			StrokeColor: drawing.ColorFromHex("e8e8e8"),
			StrokeWidth: 0.6,
		},
		ZeroLineStyle: chart.Style{
			StrokeColor: drawing.ColorFromHex("707070"),
			StrokeWidth: 1.4,
		},
		FontSize:   10.5,
		PreviewDPI: 120,
		ExportDPI:  600,
	}
}

// SeriesColor returns the cycle color for series index i.
func (rc *RenderContext) SeriesColor(i int) drawing.Color {
	return rc.Palette[i%len(rc.Palette)]
}

package chartgen

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoNumericData is returned when none of the selected columns yield
// a single finite sample.
var ErrNoNumericData = errors.New("no numeric data in selected columns")

// MissingColumnError identifies a requested column the sheet does not have.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not present in sheet", e.Column)
}

// Renderer builds chart figures from datasets and configurations.
type Renderer struct {
	ctx    *RenderContext
	logger *slog.Logger
}

// NewRenderer creates a renderer with the given visual context.
func NewRenderer(rc *RenderContext, logger *slog.Logger) *Renderer {
	if rc == nil {
		rc = NewRenderContext()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{ctx: rc, logger: logger.With(slog.String("component", "chart_renderer"))}
}

// Context exposes the visual defaults, mainly for the export path.
func (r *Renderer) Context() *RenderContext { return r.ctx }

// PrepareSeries coerces and smooths every selected column. The returned
// series all share the axis column's x values.
func (r *Renderer) PrepareSeries(ds Dataset, cfg *ChartConfig) ([]DataSeries, error) {
	axisCol := cfg.AxisColumn()
	rawX, ok := ds.Column(axisCol)
	if !ok {
		return nil, &MissingColumnError{Column: axisCol}
	}
	x := CoerceNumeric(rawX)

	spec := cfg.SmoothingSpec()
	cols := cfg.ValueColumns()
	series := make([]DataSeries, 0, len(cols))
	anyFinite := false

	for i, col := range cols {
		rawY, ok := ds.Column(col)
		if !ok {
			return nil, &MissingColumnError{Column: col}
		}
		y := Smooth(CoerceNumeric(rawY), spec)
		if len(y) != len(x) {
			// Ragged input should not happen after parsing, but guard anyway.
			n := min(len(y), len(x))
			y, x = y[:n], x[:n]
		}
		if ValidCount(y) > 0 {
			anyFinite = true
		}
		series = append(series, DataSeries{
			Label: cfg.SeriesLabel(i, col),
			X:     x,
			Y:     y,
			Color: r.ctx.SeriesColor(i),
		})
	}

	if !anyFinite {
		return nil, ErrNoNumericData
	}
	return series, nil
}

// Figure assembles a complete chart for the dataset and configuration.
// dpi controls both the raster density and the pixel dimensions derived
// from the physical figure size, so proportions are identical between
// preview and export.
func (r *Renderer) Figure(ds Dataset, cfg *ChartConfig, dpi int) (*chart.Chart, error) {
	series, err := r.PrepareSeries(ds, cfg)
	if err != nil {
		return nil, err
	}

	width := int(math.Round(cfg.FigSizeCM[0] / 2.54 * float64(dpi)))
	height := int(math.Round(cfg.FigSizeCM[1] / 2.54 * float64(dpi)))

	xLim, yLim := r.resolveRanges(series, cfg, width, height)

	graph := &chart.Chart{
		Title:  cfg.Title,
		Width:  width,
		Height: height,
		DPI:    float64(dpi),
		Background: chart.Style{
			Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16},
		},
	}

	zeroX := *cfg.ZeroAxes
	zeroY := *cfg.ZeroBaseline || *cfg.ZeroAxes

	graph.XAxis = r.axis(cfg.XLabel, xLim, cfg.XMajor, *cfg.ShowMinorGrid, zeroX)
	graph.YAxis = r.yAxis(cfg.YLabel, yLim, cfg.YMajor, *cfg.ShowMinorGrid, zeroY)

	for _, s := range series {
		graph.Series = append(graph.Series, &lineSeries{
			name:        s.Label,
			x:           s.X,
			y:           s.Y,
			strokeColor: s.Color,
			strokeWidth: cfg.LineWidth,
		})
	}

	if cfg.AnnotatePeaks {
		layout := NewAnnotationLayout()
		for _, s := range series {
			graph.Series = append(graph.Series, &PeakAnnotation{
				SeriesLabel: s.Label,
				X:           s.X,
				Y:           s.Y,
				Color:       s.Color,
				Layout:      layout,
			})
		}
	}

	graph.Elements = []chart.Renderable{chart.Legend(graph)}

	if cfg.MetricsBox && len(series) >= 2 {
		m := ComputeMetrics(series[0].Y, series[1].Y)
		graph.Elements = append(graph.Elements,
			MetricsBoxElement(m, series[0].Label, series[1].Label, AnchorFromLegendLoc(cfg.LegendLoc), 0))
	}

	return graph, nil
}

// resolveRanges computes both axis ranges from the prepared series and
// the configuration.
func (r *Renderer) resolveRanges(series []DataSeries, cfg *ChartConfig, width, height int) (ResolvedLimits, ResolvedLimits) {
	xLo, xHi := math.Inf(1), math.Inf(-1)
	yLo, yHi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		if lo, hi, ok := FiniteMinMax(s.X); ok {
			xLo, xHi = math.Min(xLo, lo), math.Max(xHi, hi)
		}
		if lo, hi, ok := FiniteMinMax(s.Y); ok {
			yLo, yHi = math.Min(yLo, lo), math.Max(yHi, hi)
		}
	}
	if math.IsInf(xLo, 0) {
		xLo, xHi = math.NaN(), math.NaN()
	}
	if math.IsInf(yLo, 0) {
		yLo, yHi = math.NaN(), math.NaN()
	}

	// Time axes hug the data; loop axes get breathing room.
	xAutoPad := cfg.Kind == ChartHysteresis
	xp := ResolveLimits(xLo, xHi, cfg.XAxisLimit(), defaultPadFrac, xAutoPad)
	yp := ResolveLimits(yLo, yHi, cfg.YAxisLimit(), defaultPadFrac, true)

	xLim := ResolvedLimits{Lo: 0, Hi: 1}
	if xp != nil {
		xLim = *xp
	}
	yLim := ResolvedLimits{Lo: 0, Hi: 1}
	if yp != nil {
		yLim = *yp
	}

	if cfg.EqualAspect {
		xLim, yLim = EqualAspect(xLim, yLim, width, height)
	}

	return xLim, yLim
}

func (r *Renderer) axis(name string, lim ResolvedLimits, major float64, minor, zero bool) chart.XAxis {
	ticks := MajorTicks(lim, major)
	return chart.XAxis{
		Name:           name,
		NameStyle:      chart.Style{FontSize: r.ctx.FontSize},
		Style:          chart.Style{FontSize: r.ctx.FontSize - 1.5},
		Range:          lim.Range(),
		Ticks:          ticks,
		GridMajorStyle: r.ctx.GridStyle,
		GridMinorStyle: r.ctx.MinorGridStyle,
		GridLines:      GridLines(lim, ticks, minor, zero, r.ctx.MinorGridStyle, r.ctx.ZeroLineStyle),
	}
}

func (r *Renderer) yAxis(name string, lim ResolvedLimits, major float64, minor, zero bool) chart.YAxis {
	ticks := MajorTicks(lim, major)
	return chart.YAxis{
		Name:           name,
		NameStyle:      chart.Style{FontSize: r.ctx.FontSize, TextRotationDegrees: 90},
		Style:          chart.Style{FontSize: r.ctx.FontSize - 1.5},
		Range:          lim.Range(),
		Ticks:          ticks,
		GridMajorStyle: r.ctx.GridStyle,
		GridMinorStyle: r.ctx.MinorGridStyle,
		GridLines:      GridLines(lim, ticks, minor, zero, r.ctx.MinorGridStyle, r.ctx.ZeroLineStyle),
	}
}

// RenderPNG renders the figure to PNG bytes.
func (r *Renderer) RenderPNG(ds Dataset, cfg *ChartConfig, dpi int) ([]byte, error) {
	graph, err := r.Figure(ds, cfg, dpi)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("png render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSVG renders the figure to SVG bytes.
func (r *Renderer) RenderSVG(ds Dataset, cfg *ChartConfig, dpi int) ([]byte, error) {
	graph, err := r.Figure(ds, cfg, dpi)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("svg render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// PreviewDataURI renders an in-memory preview and returns it as a
// base64 PNG data URI. Nothing touches the filesystem.
func (r *Renderer) PreviewDataURI(ds Dataset, cfg *ChartConfig) (string, error) {
	dpi := cfg.DPI
	if dpi == 0 {
		dpi = r.ctx.PreviewDPI
	}
	png, err := r.RenderPNG(ds, cfg, dpi)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// lineSeries draws one series as a polyline, lifting the pen across
// non-finite samples so gaps in the data render as breaks.
type lineSeries struct {
	name        string
	x           []float64
	y           []float64
	strokeColor drawing.Color
	strokeWidth float64
}

func (ls *lineSeries) GetName() string { return ls.name }

func (ls *lineSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }

func (ls *lineSeries) GetStyle() chart.Style {
	return chart.Style{StrokeColor: ls.strokeColor, StrokeWidth: ls.strokeWidth}
}

func (ls *lineSeries) Validate() error {
	if len(ls.x) != len(ls.y) {
		return fmt.Errorf("series %q: x/y length mismatch", ls.name)
	}
	if len(ls.x) == 0 {
		return fmt.Errorf("series %q: no values", ls.name)
	}
	return nil
}

func (ls *lineSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, style chart.Style) {
	r.SetStrokeColor(ls.strokeColor)
	width := ls.strokeWidth
	if width == 0 {
		width = defaultLineWidth
	}
	r.SetStrokeWidth(width)

	for _, run := range segments(ls.x, ls.y) {
		xs, ys := run[0], run[1]
		if len(xs) == 0 {
			continue
		}
		r.MoveTo(canvasBox.Left+xrange.Translate(xs[0]), canvasBox.Bottom-yrange.Translate(ys[0]))
		for i := 1; i < len(xs); i++ {
			r.LineTo(canvasBox.Left+xrange.Translate(xs[i]), canvasBox.Bottom-yrange.Translate(ys[i]))
		}
		if len(xs) == 1 {
			// Lone point: draw a dot so it is visible at all.
			r.LineTo(canvasBox.Left+xrange.Translate(xs[0])+1, canvasBox.Bottom-yrange.Translate(ys[0]))
		}
		r.Stroke()
	}
}

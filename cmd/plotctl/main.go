package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wcharczuk/go-chart/v2"

	"strucplot/internal/chartgen"
	"strucplot/internal/dataprocessing"
	"strucplot/internal/exporter"
)

// plotctl renders charts from a workbook without going through the
// HTTP service. Useful for batch runs and report pipelines.
func main() {
	file := flag.String("file", "", "path to the .xlsx workbook (required)")
	sheet := flag.String("sheet", "", "sheet name (defaults to the first sheet)")
	kind := flag.String("kind", "timeseries", "chart kind: timeseries or hysteresis")
	xCol := flag.String("x", "", "x-axis column (time column for timeseries)")
	yCols := flag.String("y", "", "comma-separated value columns (required)")
	labels := flag.String("labels", "", "comma-separated legend labels, positional")
	out := flag.String("out", "", "output directory (defaults to exports/<date> in the working directory)")
	stem := flag.String("stem", "", "output filename stem (defaults to <kind>_<HHMMSS>)")
	formats := flag.String("formats", "png,pdf,svg", "comma-separated export formats")
	dpi := flag.Int("dpi", 0, "export DPI (0 uses the default)")
	smooth := flag.String("smooth", "", "smoothing method: ma or savgol")
	smoothK := flag.Float64("k", 0, "moving-average window size")
	window := flag.Float64("window", 0, "savgol window length")
	poly := flag.Float64("poly", 0, "savgol polynomial order")
	annotate := flag.Bool("annotate", false, "annotate per-series peaks")
	metricsBox := flag.Bool("metrics", false, "draw the peak comparison box")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *file == "" || *yCols == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := &chartgen.ChartConfig{
		Kind:          chartgen.ChartKind(*kind),
		AnnotatePeaks: *annotate,
		MetricsBox:    *metricsBox,
		DPI:           *dpi,
		Smooth:        *smooth,
	}
	values := splitList(*yCols)
	if cfg.Kind == chartgen.ChartHysteresis {
		cfg.XColumn = *xCol
		cfg.YColumns = values
	} else {
		cfg.TimeColumn = *xCol
		cfg.SeriesColumns = values
	}
	if *labels != "" {
		cfg.Labels = splitList(*labels)
	}
	if *smooth != "" {
		cfg.SmoothKwargs = map[string]float64{}
		if *smoothK > 0 {
			cfg.SmoothKwargs["k"] = *smoothK
		}
		if *window > 0 {
			cfg.SmoothKwargs["window_length"] = *window
		}
		if *poly > 0 {
			cfg.SmoothKwargs["polyorder"] = *poly
		}
	}
	cfg.ExportFormats = splitList(*formats)
	cfg.Normalize()

	if err := cfg.Validate(validator.New(validator.WithRequiredStructEnabled())); err != nil {
		logger.Error("Invalid chart configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}

	ds, err := dataprocessing.ParseSheet(*file, *sheet)
	if err != nil {
		logger.Error("Failed to parse workbook", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rc := chartgen.NewRenderContext()
	renderer := chartgen.NewRenderer(rc, logger)
	packager := exporter.NewPackager(logger)

	dir := *out
	if dir == "" {
		dir = filepath.Join("exports", time.Now().Format("2006-01-02"))
	}
	base := *stem
	if base == "" {
		base = fmt.Sprintf("%s_%s", cfg.Kind, time.Now().Format("150405"))
	}
	exportDPI := cfg.DPI
	if exportDPI == 0 {
		exportDPI = rc.ExportDPI
	}

	build := func() (*chart.Chart, error) {
		return renderer.Figure(ds, cfg, exportDPI)
	}
	manifest, err := packager.Export(build, dir, base, cfg.ExportFormats,
		[2]float64{cfg.FigSizeCM[0], cfg.FigSizeCM[1]})
	if err != nil {
		logger.Error("Export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, f := range manifest.Files {
		fmt.Println(f)
	}
	if manifest.Archive != "" {
		fmt.Println(manifest.Archive)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

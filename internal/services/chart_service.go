package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wcharczuk/go-chart/v2"
	"golang.org/x/sync/semaphore"

	"strucplot/internal/chartgen"
	"strucplot/internal/config"
	"strucplot/internal/dataprocessing"
	"strucplot/internal/exporter"
	"strucplot/internal/files"
	"strucplot/internal/infrastructure"
)

// PlotRequest describes one chart job against an uploaded workbook.
type PlotRequest struct {
	FileID string               `json:"file_id" validate:"required"`
	Sheet  string               `json:"sheet"`
	Kind   chartgen.ChartKind   `json:"plot_type" validate:"required,oneof=timeseries hysteresis"`
	Config chartgen.ChartConfig `json:"params"`
}

// ExportResult is the outcome of a durable export: the preview image
// plus the files written to disk.
type ExportResult struct {
	Preview string   `json:"image"`
	Files   []string `json:"files"`
	Archive string   `json:"zip"`
	SaveDir string   `json:"save_dir"`
}

// ChartService orchestrates the render pipeline: dataset lookup, figure
// rendering, and export packaging. Renders are serialized through a
// weighted semaphore since high-DPI rasterization is memory heavy.
type ChartService struct {
	cfg      *config.Config
	paths    *config.Paths
	uploads  *UploadService
	renderer *chartgen.Renderer
	packager *exporter.Packager
	manager  *files.Manager
	validate *validator.Validate
	sem      *semaphore.Weighted
	metrics  *infrastructure.MetricsProviders
	logger   *slog.Logger
}

// NewChartService wires the chart pipeline.
func NewChartService(
	cfg *config.Config,
	paths *config.Paths,
	uploads *UploadService,
	renderer *chartgen.Renderer,
	packager *exporter.Packager,
	manager *files.Manager,
	metrics *infrastructure.MetricsProviders,
	logger *slog.Logger,
) *ChartService {
	if logger == nil {
		logger = slog.Default()
	}
	maxConcurrent := cfg.Render.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ChartService{
		cfg:      cfg,
		paths:    paths,
		uploads:  uploads,
		renderer: renderer,
		packager: packager,
		manager:  manager,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		sem:      semaphore.NewWeighted(maxConcurrent),
		metrics:  metrics,
		logger:   logger.With(slog.String("service", "chart")),
	}
}

// Preview renders the figure in memory and returns a PNG data URI.
// Nothing is written to disk.
func (s *ChartService) Preview(ctx context.Context, req *PlotRequest) (string, error) {
	ds, cfg, err := s.prepare(ctx, req)
	if err != nil {
		return "", err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %v", ErrOperationTimeout, err)
	}
	defer s.sem.Release(1)

	start := time.Now()
	uri, err := s.renderer.PreviewDataURI(ds, cfg)
	if err != nil {
		return "", err
	}
	s.metrics.RecordRender(ctx, string(cfg.Kind), "preview", time.Since(start))

	s.logger.InfoContext(ctx, "preview rendered",
		slog.String("file_id", req.FileID),
		slog.String("kind", string(cfg.Kind)),
		slog.Duration("duration", time.Since(start)))

	return uri, nil
}

// Export renders the figure once for the inline preview and once per
// requested format on disk, then zips the files. The default location
// is a dated directory under the export root.
func (s *ChartService) Export(ctx context.Context, req *PlotRequest) (*ExportResult, error) {
	ds, cfg, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	dir := s.manager.ResolveExportDir(cfg.SaveDir)
	if dir == "" {
		dir = s.paths.DatedExportDir(time.Now())
	}
	stem := cfg.FilenameBase
	if stem == "" {
		stem = fmt.Sprintf("%s_%s", cfg.Kind, time.Now().Format("150405"))
	}

	exportDPI := cfg.DPI
	if exportDPI == 0 {
		exportDPI = s.cfg.Render.ExportDPI
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperationTimeout, err)
	}
	defer s.sem.Release(1)

	start := time.Now()

	build := func() (*chart.Chart, error) {
		return s.renderer.Figure(ds, cfg, exportDPI)
	}
	manifest, err := s.packager.Export(build, dir, stem, cfg.ExportFormats,
		[2]float64{cfg.FigSizeCM[0], cfg.FigSizeCM[1]})
	if err != nil {
		return nil, err
	}

	previewDPI := s.cfg.Render.PreviewDPI
	previewCfg := *cfg
	previewCfg.DPI = previewDPI
	uri, err := s.renderer.PreviewDataURI(ds, &previewCfg)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRender(ctx, string(cfg.Kind), "export", time.Since(start))
	s.metrics.RecordExport(ctx, string(cfg.Kind), len(manifest.Files))

	s.logger.InfoContext(ctx, "chart exported",
		slog.String("file_id", req.FileID),
		slog.String("kind", string(cfg.Kind)),
		slog.String("dir", dir),
		slog.String("stem", stem),
		slog.Int("files", len(manifest.Files)),
		slog.Duration("duration", time.Since(start)))

	return &ExportResult{
		Preview: uri,
		Files:   manifest.Files,
		Archive: manifest.Archive,
		SaveDir: dir,
	}, nil
}

// DownloadPath validates a requested download path against the export
// root and returns the absolute path to serve.
func (s *ChartService) DownloadPath(requested string) (string, error) {
	if requested == "" {
		return "", ErrInvalidInput
	}
	abs := requested
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.manager.ExportsRoot(), requested)
	}
	abs = filepath.Clean(abs)
	if !s.manager.WithinExports(abs) {
		return "", fmt.Errorf("forbidden: path outside export root")
	}
	if !s.manager.FileExists(abs) {
		return "", fmt.Errorf("file not found: %s", filepath.Base(abs))
	}
	return abs, nil
}

// prepare resolves the dataset and normalizes/validates the chart
// configuration for one request.
func (s *ChartService) prepare(ctx context.Context, req *PlotRequest) (*dataprocessing.Dataset, *chartgen.ChartConfig, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, err
	}

	cfg := req.Config
	cfg.Kind = req.Kind
	cfg.Normalize()
	if err := cfg.Validate(s.validate); err != nil {
		return nil, nil, err
	}

	ds, err := s.uploads.Sheet(ctx, req.FileID, req.Sheet)
	if err != nil {
		return nil, nil, err
	}

	return ds, &cfg, nil
}

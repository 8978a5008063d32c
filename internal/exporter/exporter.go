// Package exporter writes rendered figures to disk in the requested
// formats and bundles them into a zip archive for download.
package exporter

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
)

// FigureBuilder produces a fresh figure for one render pass. The
// packager calls it once per output format so render passes never share
// mutable layout state.
type FigureBuilder func() (*chart.Chart, error)

// Manifest lists what an export produced. Paths are absolute.
type Manifest struct {
	Files   []string `json:"files"`
	Archive string   `json:"zip"`
}

// Packager renders figures into files and archives them.
type Packager struct {
	logger *slog.Logger
}

// NewPackager creates a packager.
func NewPackager(logger *slog.Logger) *Packager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Packager{logger: logger.With(slog.String("component", "export_packager"))}
}

// Export renders one file per format into dir as <stem>.<format>, then
// writes <stem>.zip containing all of them under flat basenames.
// figSizeCM is the physical figure size, needed for the PDF page. Any
// failure aborts the job with no manifest; files already written stay
// on disk for inspection.
func (p *Packager) Export(build FigureBuilder, dir, stem string, formats []string, figSizeCM [2]float64) (*Manifest, error) {
	if len(formats) == 0 {
		return nil, fmt.Errorf("no export formats requested")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}

	manifest := &Manifest{}

	for _, format := range formats {
		path := filepath.Join(dir, stem+"."+format)
		if err := p.exportOne(build, path, format, figSizeCM); err != nil {
			return nil, fmt.Errorf("export %s failed: %w", format, err)
		}
		p.logger.Info("figure exported",
			slog.String("format", format),
			slog.String("path", path))
		manifest.Files = append(manifest.Files, path)
	}

	zipPath := filepath.Join(dir, stem+".zip")
	if err := writeZip(zipPath, manifest.Files); err != nil {
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}
	manifest.Archive = zipPath

	p.logger.Info("export complete",
		slog.String("stem", stem),
		slog.Int("files", len(manifest.Files)),
		slog.String("archive", zipPath))

	return manifest, nil
}

func (p *Packager) exportOne(build FigureBuilder, path, format string, figSizeCM [2]float64) error {
	graph, err := build()
	if err != nil {
		return err
	}

	switch format {
	case "png":
		return renderToFile(graph, chart.PNG, path)
	case "svg":
		return renderToFile(graph, chart.SVG, path)
	case "pdf":
		var buf bytes.Buffer
		if err := graph.Render(chart.PNG, &buf); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		return writePDF(buf.Bytes(), figSizeCM[0], figSizeCM[1], path)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func renderToFile(graph *chart.Chart, provider chart.RendererProvider, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := graph.Render(provider, f); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return f.Sync()
}

// writeZip archives the given files under their basenames.
func writeZip(zipPath string, files []string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", zipPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, file := range files {
		if err := addToZip(zw, file); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Sync()
}

func addToZip(zw *zip.Writer, file string) error {
	in, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer in.Close()

	w, err := zw.Create(filepath.Base(file))
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", file, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", file, err)
	}
	return nil
}

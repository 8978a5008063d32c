package exporter

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2"
)

func testFigure() (*chart.Chart, error) {
	return &chart.Chart{
		Width:  320,
		Height: 200,
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0, 1, 2, 3},
				YValues: []float64{1, 3, 2, 4},
			},
		},
	}, nil
}

func TestExport(t *testing.T) {
	p := NewPackager(nil)
	dir := t.TempDir()

	manifest, err := p.Export(testFigure, dir, "run1", []string{"png", "pdf", "svg"}, [2]float64{16, 9})
	require.NoError(t, err)
	require.NotNil(t, manifest)

	require.Len(t, manifest.Files, 3)
	assert.Equal(t, filepath.Join(dir, "run1.png"), manifest.Files[0])
	assert.Equal(t, filepath.Join(dir, "run1.pdf"), manifest.Files[1])
	assert.Equal(t, filepath.Join(dir, "run1.svg"), manifest.Files[2])
	assert.Equal(t, filepath.Join(dir, "run1.zip"), manifest.Archive)

	for _, f := range manifest.Files {
		info, err := os.Stat(f)
		require.NoError(t, err, f)
		assert.Greater(t, info.Size(), int64(0), f)
	}

	// PDF magic bytes
	pdf, err := os.ReadFile(manifest.Files[1])
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	// The archive holds every file under its flat basename.
	zr, err := zip.OpenReader(manifest.Archive)
	require.NoError(t, err)
	defer zr.Close()
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"run1.png", "run1.pdf", "run1.svg"}, names)
}

func TestExportCreatesDirectory(t *testing.T) {
	p := NewPackager(nil)
	dir := filepath.Join(t.TempDir(), "nested", "2026-08-28")

	manifest, err := p.Export(testFigure, dir, "out", []string{"png"}, [2]float64{16, 9})
	require.NoError(t, err)
	assert.FileExists(t, manifest.Files[0])
}

func TestExportErrors(t *testing.T) {
	p := NewPackager(nil)

	t.Run("no formats", func(t *testing.T) {
		_, err := p.Export(testFigure, t.TempDir(), "x", nil, [2]float64{16, 9})
		assert.Error(t, err)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := p.Export(testFigure, t.TempDir(), "x", []string{"bmp"}, [2]float64{16, 9})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})

	t.Run("builder failure aborts with no manifest", func(t *testing.T) {
		boom := errors.New("bad figure")
		failing := func() (*chart.Chart, error) { return nil, boom }
		manifest, err := p.Export(failing, t.TempDir(), "x", []string{"png"}, [2]float64{16, 9})
		assert.Nil(t, manifest)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("partial files survive a late failure", func(t *testing.T) {
		dir := t.TempDir()
		_, err := p.Export(testFigure, dir, "x", []string{"png", "bmp"}, [2]float64{16, 9})
		require.Error(t, err)
		assert.FileExists(t, filepath.Join(dir, "x.png"))
		assert.NoFileExists(t, filepath.Join(dir, "x.zip"))
	})
}

func TestWritePDFScalesPage(t *testing.T) {
	dir := t.TempDir()
	graph, err := testFigure()
	require.NoError(t, err)

	pngPath := filepath.Join(dir, "fig.png")
	require.NoError(t, renderToFile(graph, chart.PNG, pngPath))
	data, err := os.ReadFile(pngPath)
	require.NoError(t, err)

	pdfPath := filepath.Join(dir, "fig.pdf")
	require.NoError(t, writePDF(data, 16, 9, pdfPath))

	out, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
	assert.Greater(t, len(out), len("%PDF"))
}

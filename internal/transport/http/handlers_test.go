package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"strucplot/internal/chartgen"
	"strucplot/internal/config"
	apierrors "strucplot/internal/errors"
	"strucplot/internal/exporter"
	"strucplot/internal/files"
	"strucplot/internal/services"
)

type fixture struct {
	router  chi.Router
	uploads *services.UploadService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()

	cfg := config.Default()
	cfg.Render.ExportDPI = 72
	paths := &config.Paths{
		BaseDir:    base,
		DataDir:    filepath.Join(base, "data"),
		UploadsDir: filepath.Join(base, "data", "uploads"),
		MetaDir:    filepath.Join(base, "data", "meta"),
		ExportsDir: filepath.Join(base, "exports"),
		LogsDir:    filepath.Join(base, "logs"),
	}
	require.NoError(t, paths.EnsureDirectories())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := apierrors.NewErrorHandler(logger, false)

	manager := files.NewManager(paths)
	uploads := services.NewUploadService(cfg, manager, logger)
	renderer := chartgen.NewRenderer(nil, logger)
	packager := exporter.NewPackager(logger)
	charts := services.NewChartService(cfg, paths, uploads, renderer, packager, manager, nil, logger)
	health := services.NewHealthService("test", paths, logger)

	r := chi.NewRouter()
	r.Mount("/api/excel", NewUploadHandler(uploads, nil, cfg.Upload.MaxSizeBytes, logger, errorHandler).Routes())
	r.Mount("/api/plot", NewChartHandler(charts, logger, errorHandler).Routes())
	r.Get("/api/download", NewDownloadHandler(charts, logger, errorHandler).Download)
	r.Get("/api/health", NewHealthHandler(health, logger).HealthCheck)

	return &fixture{router: r, uploads: uploads}
}

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Run"))
	rows := [][]interface{}{{"Time", "Uncontrolled", "Controlled"}}
	for i := 0; i < 25; i++ {
		rows = append(rows, []interface{}{
			float64(i) * 0.05,
			float64(25-i) * 0.4,
			float64(25-i) * 0.2,
		})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Run", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func (fx *fixture) uploadWorkbook(t *testing.T) string {
	t.Helper()
	result, err := fx.uploads.SaveUpload(context.Background(), "test.xlsx", bytes.NewReader(workbookBytes(t)))
	require.NoError(t, err)
	return result.FileID
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	fx := newFixture(t)

	t.Run("valid workbook", func(t *testing.T) {
		body, contentType := multipartBody(t, "run.xlsx", workbookBytes(t))
		req := httptest.NewRequest(http.MethodPost, "/api/excel/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp struct {
			FileID string   `json:"file_id"`
			Sheets []string `json:"sheets"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.FileID)
		assert.Equal(t, []string{"Run"}, resp.Sheets)
	})

	t.Run("wrong extension gets 415 problem details", func(t *testing.T) {
		body, contentType := multipartBody(t, "run.txt", []byte("hello"))
		req := httptest.NewRequest(http.MethodPost, "/api/excel/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	})

	t.Run("missing multipart field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/excel/upload", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestColumnsEndpoint(t *testing.T) {
	fx := newFixture(t)
	fileID := fx.uploadWorkbook(t)

	t.Run("known upload", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/excel/columns?file_id="+fileID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var profile struct {
			Columns        []string `json:"columns"`
			TimeCandidates []string `json:"time_candidates"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		assert.Equal(t, []string{"Time", "Uncontrolled", "Controlled"}, profile.Columns)
		assert.Equal(t, []string{"Time"}, profile.TimeCandidates)
	})

	t.Run("missing file_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/excel/columns", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown file_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/excel/columns?file_id=bogus", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func plotBody(fileID string, params map[string]interface{}) *bytes.Reader {
	body, _ := json.Marshal(map[string]interface{}{
		"file_id":   fileID,
		"sheet":     "Run",
		"plot_type": "timeseries",
		"params":    params,
	})
	return bytes.NewReader(body)
}

func TestPreviewEndpoint(t *testing.T) {
	fx := newFixture(t)
	fileID := fx.uploadWorkbook(t)

	t.Run("renders a data uri", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/plot/preview", plotBody(fileID, map[string]interface{}{
			"time_col":    "Time",
			"series_cols": []string{"Uncontrolled", "Controlled"},
		}))
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp["image"], "data:image/png;base64,"))
	})

	t.Run("unknown column gets 400 with column name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/plot/preview", plotBody(fileID, map[string]interface{}{
			"time_col":    "Time",
			"series_cols": []string{"Ghost"},
		}))
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Ghost")
	})

	t.Run("missing series columns is a validation problem", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/plot/preview", plotBody(fileID, map[string]interface{}{
			"time_col": "Time",
		}))
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/plot/preview", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown upload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/plot/preview", plotBody("missing", map[string]interface{}{
			"time_col":    "Time",
			"series_cols": []string{"Uncontrolled"},
		}))
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestExportAndDownloadEndpoints(t *testing.T) {
	fx := newFixture(t)
	fileID := fx.uploadWorkbook(t)

	req := httptest.NewRequest(http.MethodPost, "/api/plot/export", plotBody(fileID, map[string]interface{}{
		"time_col":       "Time",
		"series_cols":    []string{"Uncontrolled", "Controlled"},
		"export_formats": []string{"png"},
		"save_dir":       "webtest",
		"filename_base":  "fig",
	}))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Preview string   `json:"image"`
		Files   []string `json:"files"`
		Archive string   `json:"zip"`
		SaveDir string   `json:"save_dir"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, strings.HasPrefix(result.Preview, "data:image/png;base64,"))
	require.Len(t, result.Files, 1)
	assert.NotEmpty(t, result.Archive)

	t.Run("download served with attachment disposition", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/download?path=webtest%2Ffig.png", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename="fig.png"`, rec.Header().Get("Content-Disposition"))
		assert.Greater(t, rec.Body.Len(), 0)
	})

	t.Run("traversal refused", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/download?path=..%2Fdata%2Fmeta%2F"+fileID+".json", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing file yields 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/download?path=webtest%2Fnope.png", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing path parameter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	fx := newFixture(t)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "test", status.Version)
}

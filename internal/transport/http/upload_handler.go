package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "strucplot/internal/errors"
	"strucplot/internal/infrastructure"
	"strucplot/internal/services"
)

// UploadHandler handles workbook upload and column inspection requests
type UploadHandler struct {
	service      *services.UploadService
	metrics      *infrastructure.MetricsProviders
	maxSizeBytes int64
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service *services.UploadService, metrics *infrastructure.MetricsProviders, maxSizeBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *UploadHandler {
	return &UploadHandler{
		service:      service,
		metrics:      metrics,
		maxSizeBytes: maxSizeBytes,
		logger:       logger.With(slog.String("handler", "upload")),
		errorHandler: errorHandler,
	}
}

// Routes returns the upload routes
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/upload", h.Upload)
	r.Get("/columns", h.Columns)

	return r
}

// Upload handles POST /api/excel/upload (multipart, field "file")
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrUploadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	result, err := h.service.SaveUpload(r.Context(), header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(err))
		return
	}

	h.metrics.RecordUpload(r.Context())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// Columns handles GET /api/excel/columns?file_id=...&sheet=...
func (h *UploadHandler) Columns(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("file_id")
	if fileID == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file_id", "Query parameter file_id is required"))
		return
	}
	sheet := r.URL.Query().Get("sheet")

	profile, err := h.service.Columns(r.Context(), fileID, sheet)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(err))
		return
	}

	render.JSON(w, r, profile)
}

func (h *UploadHandler) mapError(err error) error {
	switch {
	case errors.Is(err, services.ErrUploadNotFound):
		return apierrors.ErrUploadNotFound
	case errors.Is(err, services.ErrSheetNotFound):
		return apierrors.NewWithDetails(http.StatusNotFound, "SHEET_NOT_FOUND", "Worksheet not found in workbook", err.Error())
	case errors.Is(err, services.ErrInvalidFileType):
		return apierrors.ErrUnsupportedWorkbook
	case errors.Is(err, services.ErrUploadTooLarge):
		return apierrors.ErrUploadTooLarge
	default:
		return apierrors.FileSystemError("upload", err)
	}
}

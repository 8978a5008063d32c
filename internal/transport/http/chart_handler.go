package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"strucplot/internal/chartgen"
	apierrors "strucplot/internal/errors"
	"strucplot/internal/services"
)

// ChartHandler handles chart preview and export requests
type ChartHandler struct {
	service      *services.ChartService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewChartHandler creates a new chart handler
func NewChartHandler(service *services.ChartService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ChartHandler {
	return &ChartHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "chart")),
		errorHandler: errorHandler,
	}
}

// Routes returns the chart routes
func (h *ChartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/preview", h.Preview)
	r.Post("/export", h.Export)

	return r
}

// Preview handles POST /api/plot/preview
func (h *ChartHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req services.PlotRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	uri, err := h.service.Preview(r.Context(), &req)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(err))
		return
	}

	render.JSON(w, r, map[string]string{"image": uri})
}

// Export handles POST /api/plot/export
func (h *ChartHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req services.PlotRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	result, err := h.service.Export(r.Context(), &req)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(err))
		return
	}

	render.JSON(w, r, result)
}

// mapError translates pipeline errors into API errors so clients get
// actionable status codes instead of a blanket 500.
func (h *ChartHandler) mapError(err error) error {
	var missing *chartgen.MissingColumnError
	var valErrs validator.ValidationErrors

	switch {
	case errors.As(err, &missing):
		return apierrors.ColumnNotFoundError(missing.Column)
	case errors.As(err, &valErrs):
		fields := make([]apierrors.ValidationError, 0, len(valErrs))
		for _, fe := range valErrs {
			fields = append(fields, apierrors.ValidationError{
				Field:   fe.Field(),
				Message: fe.Tag(),
			})
		}
		return apierrors.NewValidationErrors(fields)
	case errors.Is(err, chartgen.ErrNoNumericData):
		return apierrors.NewWithDetails(http.StatusUnprocessableEntity, "NO_NUMERIC_DATA",
			"Selected columns contain no numeric data", err.Error())
	case errors.Is(err, services.ErrUploadNotFound):
		return apierrors.ErrUploadNotFound
	case errors.Is(err, services.ErrSheetNotFound):
		return apierrors.NewWithDetails(http.StatusNotFound, "SHEET_NOT_FOUND", "Worksheet not found in workbook", err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return apierrors.ErrInvalidRequest
	case errors.Is(err, services.ErrOperationTimeout):
		return apierrors.ErrServiceUnavailable
	default:
		if apiErr, ok := err.(*apierrors.APIError); ok {
			return apiErr
		}
		// Cross-field config rules surface as plain errors
		if isConfigError(err) {
			return apierrors.NewValidationError(err.Error())
		}
		return apierrors.RenderError(err)
	}
}

// isConfigError distinguishes configuration complaints from genuine
// render failures by origin: config errors come from Validate before
// any rendering starts.
func isConfigError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{"is required", "must name", "must be a", "unknown chart kind"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

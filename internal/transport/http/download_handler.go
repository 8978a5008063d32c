package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	apierrors "strucplot/internal/errors"
	"strucplot/internal/services"
)

// DownloadHandler serves exported chart files from the export root.
type DownloadHandler struct {
	service      *services.ChartService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(service *services.ChartService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DownloadHandler {
	return &DownloadHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "download")),
		errorHandler: errorHandler,
	}
}

// Download handles GET /api/download?path=...
// The path may be absolute (as returned by export) or relative to the
// export root; anything resolving outside the root is refused.
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	requested := r.URL.Query().Get("path")
	if requested == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("path", "Query parameter path is required"))
		return
	}

	abs, err := h.service.DownloadPath(requested)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "forbidden"):
			h.logger.WarnContext(r.Context(), "download refused",
				slog.String("requested", requested))
			h.errorHandler.HandleError(w, r, apierrors.ErrPathEscapes)
		case strings.Contains(err.Error(), "not found"):
			h.errorHandler.HandleError(w, r, apierrors.NotFoundError("export file"))
		default:
			h.errorHandler.HandleError(w, r, apierrors.FileSystemError("download", err))
		}
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(abs)))
	http.ServeFile(w, r, abs)
}

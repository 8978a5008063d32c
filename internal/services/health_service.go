package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"strucplot/internal/config"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Checks    map[string]string      `json:"checks,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// Check returns the current health status. Directory checks verify the
// data tree is writable since uploads and exports both depend on it.
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": time.Since(s.startTime).Seconds(),
		},
		Checks: map[string]string{},
	}

	dirs := map[string]string{
		"uploads_dir": s.paths.UploadsDir,
		"exports_dir": s.paths.ExportsDir,
		"meta_dir":    s.paths.MetaDir,
	}
	for name, dir := range dirs {
		if err := checkWritable(dir); err != nil {
			status.Checks[name] = "unwritable: " + err.Error()
			status.Status = "degraded"
			s.logger.WarnContext(ctx, "health check failed",
				slog.String("check", name),
				slog.String("error", err.Error()))
		} else {
			status.Checks[name] = "ok"
		}
	}

	return status
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".healthcheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

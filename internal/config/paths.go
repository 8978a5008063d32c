package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	BaseDir    string
	DataDir    string
	UploadsDir string
	MetaDir    string
	ExportsDir string
	LogsDir    string
}

// GetPaths resolves the application paths for the given configuration.
// Relative entries are anchored at the executable directory, never the
// current working directory, so the layout is stable regardless of how
// the binary is launched.
//
// Directory structure:
//
//	<base>/
//	  ├── data/
//	  │   ├── uploads/   (uploaded workbooks)
//	  │   ├── meta/      (per-upload sidecar metadata)
//	  │   └── exports/   (durable chart exports, dated subdirs)
//	  └── logs/          (application logs)
func GetPaths(cfg PathsConfig) (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	baseDir := filepath.Dir(exe)

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(baseDir, dataDir)
	}

	resolve := func(dir, fallback string) string {
		if dir == "" {
			dir = fallback
		}
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(dataDir, dir)
	}

	logsDir := cfg.LogsDir
	if logsDir == "" {
		logsDir = "logs"
	}
	if !filepath.IsAbs(logsDir) {
		logsDir = filepath.Join(baseDir, logsDir)
	}

	paths := &Paths{
		BaseDir:    baseDir,
		DataDir:    dataDir,
		UploadsDir: resolve(cfg.UploadsDir, "uploads"),
		MetaDir:    resolve(cfg.MetaDir, "meta"),
		ExportsDir: resolve(cfg.ExportsDir, "exports"),
		LogsDir:    logsDir,
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.UploadsDir,
		p.MetaDir,
		p.ExportsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// DatedExportDir returns the default export directory for the given day,
// e.g. <exports>/2026-08-28. The directory is not created here.
func (p *Paths) DatedExportDir(t time.Time) string {
	return filepath.Join(p.ExportsDir, t.Format("2006-01-02"))
}

// LogPathResolution logs the resolved paths at startup for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}
	logger.Info("Resolved application paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("uploads_dir", p.UploadsDir),
		slog.String("meta_dir", p.MetaDir),
		slog.String("exports_dir", p.ExportsDir),
		slog.String("logs_dir", p.LogsDir))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"strucplot/internal/config"
)

// Manager provides file management operations rooted at the application
// data directories: uploaded workbooks, their sidecar metadata, and the
// export tree.
type Manager struct {
	paths *config.Paths
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths) *Manager {
	return &Manager{paths: paths}
}

// UploadPath returns the absolute path for an uploaded workbook file.
func (m *Manager) UploadPath(name string) string {
	return filepath.Join(m.paths.UploadsDir, name)
}

// MetaPath returns the absolute path for an upload's metadata sidecar.
func (m *Manager) MetaPath(name string) string {
	return filepath.Join(m.paths.MetaDir, name)
}

// ExportsRoot returns the root of the export tree.
func (m *Manager) ExportsRoot() string {
	return m.paths.ExportsDir
}

// ResolveExportDir resolves a requested save directory. Empty or
// relative requests land inside the export root; absolute requests are
// honored as-is (batch mode writes wherever it is pointed).
func (m *Manager) ResolveExportDir(requested string) string {
	if requested == "" {
		return ""
	}
	if filepath.IsAbs(requested) {
		return filepath.Clean(requested)
	}
	return filepath.Join(m.paths.ExportsDir, requested)
}

// WithinExports reports whether path stays inside the export root after
// cleaning. Download handlers use this to refuse traversal attempts.
func (m *Manager) WithinExports(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	root, err := filepath.Abs(m.paths.ExportsDir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(path)
	exists := err == nil

	slog.Debug("FileExists check",
		slog.String("path", path),
		slog.Bool("exists", exists))

	return exists
}

// SaveStream writes a reader to the given path, creating parent
// directories as needed. Returns the number of bytes written.
func (m *Manager) SaveStream(path string, r io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("failed to write file content: %w", err)
	}

	return n, f.Sync()
}

// ReadFile reads the entire content of a file
func (m *Manager) ReadFile(path string) ([]byte, error) {
	slog.Debug("Reading file", slog.String("path", path))
	return os.ReadFile(path)
}

// WriteFile writes data to a file
func (m *Manager) WriteFile(path string, data []byte) error {
	slog.Debug("Writing file",
		slog.String("path", path),
		slog.Int("size_bytes", len(data)))

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DeleteFile deletes a file
func (m *Manager) DeleteFile(path string) error {
	slog.Info("Deleting file", slog.String("path", path))
	return os.Remove(path)
}

// GetFileSize returns the size of a file in bytes
func (m *Manager) GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ListFiles returns all files in a directory (non-recursive)
func (m *Manager) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}

	return files, nil
}

// EnsureDirectory creates a directory if it doesn't exist
func (m *Manager) EnsureDirectory(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}
	return nil
}

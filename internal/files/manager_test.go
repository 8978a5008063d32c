package files

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strucplot/internal/config"
)

func testManager(t *testing.T) (*Manager, string) {
	t.Helper()
	base := t.TempDir()
	paths := &config.Paths{
		BaseDir:    base,
		DataDir:    filepath.Join(base, "data"),
		UploadsDir: filepath.Join(base, "data", "uploads"),
		MetaDir:    filepath.Join(base, "data", "meta"),
		ExportsDir: filepath.Join(base, "exports"),
		LogsDir:    filepath.Join(base, "logs"),
	}
	require.NoError(t, paths.EnsureDirectories())
	return NewManager(paths), base
}

func TestManagerPaths(t *testing.T) {
	m, base := testManager(t)
	assert.Equal(t, filepath.Join(base, "data", "uploads", "a.xlsx"), m.UploadPath("a.xlsx"))
	assert.Equal(t, filepath.Join(base, "data", "meta", "a.json"), m.MetaPath("a.json"))
	assert.Equal(t, filepath.Join(base, "exports"), m.ExportsRoot())
}

func TestResolveExportDir(t *testing.T) {
	m, base := testManager(t)

	assert.Equal(t, "", m.ResolveExportDir(""))
	assert.Equal(t, filepath.Join(base, "exports", "run7"), m.ResolveExportDir("run7"))

	abs := filepath.Join(base, "elsewhere")
	assert.Equal(t, abs, m.ResolveExportDir(abs))
}

func TestWithinExports(t *testing.T) {
	m, base := testManager(t)
	root := filepath.Join(base, "exports")

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"file in root", filepath.Join(root, "fig.png"), true},
		{"nested file", filepath.Join(root, "2026-08-28", "fig.zip"), true},
		{"root itself", root, true},
		{"parent directory", filepath.Dir(root), false},
		{"traversal", filepath.Join(root, "..", "secret.txt"), false},
		{"deep traversal", filepath.Join(root, "a", "..", "..", "b"), false},
		{"unrelated absolute", "/etc/passwd", false},
		{"sibling with shared prefix", root + "-evil/fig.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.WithinExports(tt.path))
		})
	}
}

func TestSaveStreamAndReadBack(t *testing.T) {
	m, _ := testManager(t)
	path := m.UploadPath(filepath.Join("deep", "file.bin"))

	n, err := m.SaveStream(path, bytes.NewReader([]byte("payload")))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	data, err := m.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	size, err := m.GetFileSize(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)

	assert.True(t, m.FileExists(path))
	require.NoError(t, m.DeleteFile(path))
	assert.False(t, m.FileExists(path))
}

func TestListFiles(t *testing.T) {
	m, base := testManager(t)
	dir := filepath.Join(base, "exports")

	require.NoError(t, m.WriteFile(filepath.Join(dir, "a.png"), []byte("x")))
	require.NoError(t, m.WriteFile(filepath.Join(dir, "b.pdf"), []byte("y")))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))

	files, err := m.ListFiles(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.png", "b.pdf"}, files)
}

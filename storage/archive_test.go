package storage

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipArchiver(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "batch1")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Red Sox"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Red Sox", "img1.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roster.csv"), []byte("Team,Photo\n"), 0o644))

	path, name, err := ZipArchiver{}.Archive(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "batch1.zip"), path)
	assert.Equal(t, "batch1.zip", name)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	contents := map[string]string{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			contents[f.Name] = ""
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		contents[f.Name] = string(b)
	}
	assert.Equal(t, map[string]string{
		"Red Sox/":         "",
		"Red Sox/img1.png": "png",
		"roster.csv":       "Team,Photo\n",
	}, contents)

	// keine Temp-Dateien neben dem Archiv
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestZipArchiverMissingDir(t *testing.T) {
	root := t.TempDir()
	_, _, err := ZipArchiver{}.Archive(context.Background(), filepath.Join(root, "missing"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, "missing.zip"))
}

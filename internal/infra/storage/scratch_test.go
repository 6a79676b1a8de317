package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/vectora/internal/domain/analysis"
)

func TestSaveAndRelease(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	f, release, err := s.Save("My Report.PDF", "application/octet-stream", strings.NewReader("%PDF-1.4 body"))
	require.NoError(t, err)

	assert.Equal(t, "My_Report.PDF", f.Name)
	assert.Equal(t, analysis.MediaTypePDF, f.MediaType)
	assert.Equal(t, int64(len("%PDF-1.4 body")), f.Size)
	data, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	// A byproduct written next to the upload goes away with it.
	page := filepath.Join(filepath.Dir(f.Path), "My_Report_page-1.jpg")
	require.NoError(t, os.WriteFile(page, []byte("jpg"), 0o600))

	release()
	release()

	_, err = os.Stat(filepath.Dir(f.Path))
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveIsolatesRequests(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	a, releaseA, err := s.Save("same.png", "", strings.NewReader("a"))
	require.NoError(t, err)
	defer releaseA()
	b, releaseB, err := s.Save("same.png", "", strings.NewReader("b"))
	require.NoError(t, err)
	defer releaseB()

	assert.NotEqual(t, a.Path, b.Path)
}

func TestWritable(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Writable())
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":             "photo.jpg",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\scan.png`:  "scan.png",
		"my file (1).pdf":       "my_file_1.pdf",
		"..":                    "upload",
		"":                      "upload",
		"ünïcødé.png":           "ncd.png",
		".hidden":               "hidden",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

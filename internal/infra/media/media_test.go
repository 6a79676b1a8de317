package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/vectora/internal/config"
	"github.com/bryanwahyu/vectora/internal/domain/analysis"
)

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		filename string
		declared string
		want     string
	}{
		{"report.pdf", "text/plain", analysis.MediaTypePDF},
		{"REPORT.PDF", "", analysis.MediaTypePDF},
		{"photo.jpg", "application/octet-stream", analysis.MediaTypeJPEG},
		{"photo.JPEG", "image/png", analysis.MediaTypeJPEG},
		{"shot.png", "image/jpeg", analysis.MediaTypePNG},
		{"notes.txt", "text/plain; charset=utf-8", "text/plain"},
		{"clip.webp", "image/webp", "image/webp"},
		{"blob", "", analysis.MediaTypeOctetStream},
		{"blob", ";;;", analysis.MediaTypeOctetStream},
	}

	for _, tt := range tests {
		t.Run(tt.filename+"|"+tt.declared, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMediaType(tt.filename, tt.declared))
		})
	}
}

func TestEncodeFileAndDataURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.png")
	raw := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	b64, err := EncodeFile(path)
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)

	url, err := DataURL("image/png", path)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+b64, url)

	_, err = EncodeFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func writeJPEG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, img, nil))
	require.NoError(t, f.Close())
}

// fakePdftoppm emulates pdftoppm writing every page of a document of the
// given length, ignoring -l, so the cap is enforced on our side too.
func fakePdftoppm(t *testing.T, pages, width int, calls *[]string) CommandRunner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, name+" "+strings.Join(args, " "))
		prefix := args[len(args)-1]
		for i := 1; i <= pages; i++ {
			writeJPEG(t, fmt.Sprintf("%s-%02d.jpg", prefix, i), width, 4)
		}
		return nil, nil
	}
}

func newTestRasterizer(run CommandRunner, found bool) *Rasterizer {
	r := NewRasterizer(config.Media{MaxPages: 5, DPI: 100, MaxPageWidth: 32})
	r.run = run
	r.lookPath = func(bin string) (string, error) {
		if !found {
			return "", exec404{}
		}
		return "/usr/bin/" + bin, nil
	}
	return r
}

type exec404 struct{}

func (exec404) Error() string { return "executable file not found in $PATH" }

func TestRasterizeCapsPages(t *testing.T) {
	for _, total := range []int{1, 5, 6, 12} {
		t.Run(fmt.Sprintf("%d pages", total), func(t *testing.T) {
			dir := t.TempDir()
			pdf := filepath.Join(dir, "doc.pdf")
			require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o600))

			var calls []string
			r := newTestRasterizer(fakePdftoppm(t, total, 16, &calls), true)

			pages, err := r.Rasterize(context.Background(), pdf)
			require.NoError(t, err)

			want := min(total, MaxPages)
			require.Len(t, pages, want)
			for i, p := range pages {
				assert.Equal(t, filepath.Join(dir, fmt.Sprintf("doc_page-%02d.jpg", i+1)), p)
			}

			left, _ := filepath.Glob(filepath.Join(dir, "doc_page-*.jpg"))
			assert.Len(t, left, want, "pages past the cap are removed")

			require.Len(t, calls, 1)
			assert.Contains(t, calls[0], "/usr/bin/pdftoppm -jpeg -r 100 -f 1 -l 5")
		})
	}
}

func TestRasterizeDownscalesWidePages(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "wide.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o600))

	var calls []string
	r := newTestRasterizer(fakePdftoppm(t, 2, 128, &calls), true)

	pages, err := r.Rasterize(context.Background(), pdf)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	f, err := os.Open(pages[0])
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Width)
}

func TestRasterizeRendererUnavailable(t *testing.T) {
	var calls []string
	r := newTestRasterizer(fakePdftoppm(t, 1, 8, &calls), false)

	assert.ErrorIs(t, r.Available(), analysis.ErrRendererUnavailable)

	_, err := r.Rasterize(context.Background(), filepath.Join(t.TempDir(), "doc.pdf"))
	assert.ErrorIs(t, err, analysis.ErrRendererUnavailable)
	assert.ErrorIs(t, err, analysis.ErrConfiguration)
	assert.Empty(t, calls)
}

func TestRasterizeCommandFailure(t *testing.T) {
	r := newTestRasterizer(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Syntax Error: Couldn't read xref table"), errors.New("exit status 1")
	}, true)

	_, err := r.Rasterize(context.Background(), filepath.Join(t.TempDir(), "broken.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xref")
	assert.NotErrorIs(t, err, analysis.ErrConfiguration)
}

func TestRasterizeNoPages(t *testing.T) {
	r := newTestRasterizer(func(context.Context, string, ...string) ([]byte, error) {
		return nil, nil
	}, true)

	_, err := r.Rasterize(context.Background(), filepath.Join(t.TempDir(), "empty.pdf"))
	assert.Error(t, err)
}

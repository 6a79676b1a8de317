package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nfnt/resize"

	"github.com/bryanwahyu/vectora/internal/config"
	"github.com/bryanwahyu/vectora/internal/domain/analysis"
)

// MaxPages is the hard cap on rasterized pages per document.
const MaxPages = 5

// CommandRunner runs an external program and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Rasterizer converts PDF pages to JPEG files using poppler's pdftoppm.
type Rasterizer struct {
	binary   string
	maxPages int
	dpi      int
	maxWidth uint

	lookPath func(string) (string, error)
	run      CommandRunner
}

func NewRasterizer(cfg config.Media) *Rasterizer {
	r := &Rasterizer{
		binary:   cfg.PdftoppmPath,
		maxPages: cfg.MaxPages,
		dpi:      cfg.DPI,
		maxWidth: cfg.MaxPageWidth,
		lookPath: exec.LookPath,
		run:      execRunner,
	}
	if r.binary == "" {
		r.binary = "pdftoppm"
	}
	if r.maxPages <= 0 || r.maxPages > MaxPages {
		r.maxPages = MaxPages
	}
	if r.dpi <= 0 {
		r.dpi = 150
	}
	return r
}

// Available reports ErrRendererUnavailable when pdftoppm cannot be found.
func (r *Rasterizer) Available() error {
	if _, err := r.lookPath(r.binary); err != nil {
		return analysis.ErrRendererUnavailable
	}
	return nil
}

// Rasterize writes the first pages of pdfPath as JPEG files next to it and
// returns their paths in page order. Pages past the cap are discarded.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string) ([]string, error) {
	bin, err := r.lookPath(r.binary)
	if err != nil {
		return nil, analysis.ErrRendererUnavailable
	}

	prefix := strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + "_page"
	out, err := r.run(ctx, bin,
		"-jpeg",
		"-r", strconv.Itoa(r.dpi),
		"-f", "1",
		"-l", strconv.Itoa(r.maxPages),
		pdfPath, prefix,
	)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, analysis.ErrRendererUnavailable
		}
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(out)))
	}

	pages, err := collectPages(prefix)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages for %s", filepath.Base(pdfPath))
	}
	if len(pages) > r.maxPages {
		for _, p := range pages[r.maxPages:] {
			_ = os.Remove(p)
		}
		pages = pages[:r.maxPages]
	}

	if r.maxWidth > 0 {
		for _, p := range pages {
			if err := downscale(p, r.maxWidth); err != nil {
				return nil, err
			}
		}
	}
	return pages, nil
}

// collectPages finds "<prefix>-N.jpg" files and sorts them by N.
// pdftoppm zero-pads N depending on the page count.
func collectPages(prefix string) ([]string, error) {
	matches, err := filepath.Glob(prefix + "-*.jpg")
	if err != nil {
		return nil, err
	}

	type page struct {
		path string
		num  int
	}
	pages := make([]page, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(m, prefix+"-"), ".jpg"))
		if err != nil {
			continue
		}
		pages = append(pages, page{path: m, num: n})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })

	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = p.path
	}
	return paths, nil
}

// downscale rewrites the JPEG at path so its width is at most maxWidth.
func downscale(path string, maxWidth uint) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode page %s: %w", filepath.Base(path), err)
	}
	if uint(img.Bounds().Dx()) <= maxWidth {
		return nil
	}

	scaled := resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(out, scaled, &jpeg.Options{Quality: 85}); err != nil {
		out.Close()
		return fmt.Errorf("encode page %s: %w", filepath.Base(path), err)
	}
	return out.Close()
}

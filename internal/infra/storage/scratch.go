// Package storage keeps request uploads in a private scratch directory that
// is removed as soon as the request ends.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/vectora/internal/domain/analysis"
	"github.com/bryanwahyu/vectora/internal/infra/media"
)

type Scratch struct {
	root string
}

// New makes sure root exists.
func New(root string) (*Scratch, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("scratch dir %s: %w", root, err)
	}
	return &Scratch{root: root}, nil
}

func (s *Scratch) Root() string { return s.root }

// Release removes everything a request wrote, rasterized pages included.
type Release func()

// Save writes r into a fresh per-request directory. The returned Release must
// be called on every exit path; it is safe to call more than once.
func (s *Scratch) Save(filename, declaredType string, r io.Reader) (*analysis.UploadedFile, Release, error) {
	dir := filepath.Join(s.root, uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create scratch: %w", err)
	}
	release := func() {
		_ = os.RemoveAll(dir)
	}

	name := SanitizeFilename(filename)
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("create upload: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("write upload: %w", err)
	}

	return &analysis.UploadedFile{
		Path:      path,
		Name:      name,
		MediaType: media.DetectMediaType(name, declaredType),
		Size:      size,
	}, release, nil
}

// Writable checks the root accepts new files. Used by readiness.
func (s *Scratch) Writable() error {
	f, err := os.CreateTemp(s.root, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces an uploaded name to a safe base name made of
// ASCII letters, digits, '_', '.' and '-'.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

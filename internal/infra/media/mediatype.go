// Package media turns an uploaded file into what each adapter can send:
// a normalized media type, base64 payloads and rasterized PDF pages.
package media

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/bryanwahyu/vectora/internal/domain/analysis"
)

var extensionTypes = map[string]string{
	".pdf":  analysis.MediaTypePDF,
	".jpg":  analysis.MediaTypeJPEG,
	".jpeg": analysis.MediaTypeJPEG,
	".png":  analysis.MediaTypePNG,
}

// DetectMediaType returns the media type of an upload. The extension of the
// supported formats always wins over the declared type.
func DetectMediaType(filename, declared string) string {
	if mt, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	if declared == "" {
		return analysis.MediaTypeOctetStream
	}
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil || mt == "" {
		return analysis.MediaTypeOctetStream
	}
	return mt
}

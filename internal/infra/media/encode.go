package media

import (
	"encoding/base64"
	"fmt"
	"os"
)

// EncodeFile returns the standard base64 encoding of the file at path.
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DataURL inlines the file at path as a data: URL.
func DataURL(mediaType, path string) (string, error) {
	b64, err := EncodeFile(path)
	if err != nil {
		return "", err
	}
	return "data:" + mediaType + ";base64," + b64, nil
}

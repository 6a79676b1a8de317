package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/vectora/internal/domain/analysis"
)

type uploadStart struct {
	File struct {
		DisplayName string `json:"display_name"`
	} `json:"file"`
}

type uploadResult struct {
	File struct {
		Name     string `json:"name"`
		URI      string `json:"uri"`
		MimeType string `json:"mimeType"`
		State    string `json:"state"`
	} `json:"file"`
}

// upload runs the two-step resumable protocol of the Files API and returns
// the file URI to reference in the generation request.
func (c *Client) upload(ctx context.Context, f *analysis.UploadedFile) (string, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return "", &analysis.UploadError{Reason: "stat upload", Err: err}
	}
	size := info.Size()

	uploadURL, err := c.startUpload(ctx, f, size)
	if err != nil {
		return "", err
	}

	src, err := os.Open(f.Path)
	if err != nil {
		return "", &analysis.UploadError{Reason: "open upload", Err: err}
	}
	defer src.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, src)
	if err != nil {
		return "", &analysis.UploadError{Reason: "create byte upload", Err: err}
	}
	req.ContentLength = size
	req.Header.Set("Content-Length", strconv.FormatInt(size, 10))
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &analysis.UploadError{Reason: "byte upload", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &analysis.UploadError{
			Reason: fmt.Sprintf("byte upload returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var result uploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &analysis.UploadError{Reason: "decode upload response", Err: err}
	}
	if result.File.URI == "" {
		return "", &analysis.UploadError{Reason: "upload response carries no file uri"}
	}

	c.log.Debug("file uploaded",
		zap.String("name", result.File.Name),
		zap.String("state", result.File.State),
		zap.Int64("bytes", size),
	)
	return result.File.URI, nil
}

func (c *Client) startUpload(ctx context.Context, f *analysis.UploadedFile, size int64) (string, error) {
	var start uploadStart
	start.File.DisplayName = f.Name
	body, err := json.Marshal(start)
	if err != nil {
		return "", &analysis.UploadError{Reason: "marshal upload start", Err: err}
	}

	url := fmt.Sprintf("%s/upload/%s/files", c.cfg.BaseURL, c.cfg.APIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &analysis.UploadError{Reason: "create upload start", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(size, 10))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", f.MediaType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &analysis.UploadError{Reason: "start upload", Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return "", &analysis.UploadError{
			Reason: fmt.Sprintf("no upload URL (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}
	return uploadURL, nil
}

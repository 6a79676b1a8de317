// Package gemini is the Google Gemini adapter: resumable file upload,
// streamed generation with grounding sources, model listing and the
// single-shot generator used by the detector.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/vectora/internal/config"
	"github.com/bryanwahyu/vectora/internal/domain/analysis"
)

type Client struct {
	cfg  config.Provider
	http *http.Client
	log  *zap.Logger
}

func NewClient(cfg config.Provider, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1beta"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient, log: log.Named("gemini")}
}

func (c *Client) Name() analysis.ProviderID { return analysis.ProviderGemini }

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	Tools            []tool           `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type generationConfig struct {
	Temperature float32 `json:"temperature"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

// Stream uploads the attached file if any, then streams the answer.
func (c *Client) Stream(ctx context.Context, req analysis.AnalysisRequest) iter.Seq2[analysis.Fragment, error] {
	return func(yield func(analysis.Fragment, error) bool) {
		if c.cfg.APIKey == "" {
			yield(analysis.Fragment{}, analysis.MissingKeyError(analysis.ProviderGemini))
			return
		}

		var file *fileData
		if req.File != nil {
			msg := fmt.Sprintf("// Uploading %s to Gemini file storage...\n", req.File.Name)
			if !yield(analysis.ProgressFragment(msg), nil) {
				return
			}
			uri, err := c.upload(ctx, req.File)
			if err != nil {
				yield(analysis.Fragment{}, err)
				return
			}
			file = &fileData{MimeType: req.File.MediaType, FileURI: uri}
		}

		body, err := c.openStream(ctx, req, file)
		if err != nil {
			yield(analysis.Fragment{}, err)
			return
		}
		defer body.Close()

		for frag, err := range DecodeStream(body) {
			if !yield(frag, err) || err != nil {
				return
			}
		}
	}
}

func (c *Client) openStream(ctx context.Context, req analysis.AnalysisRequest, file *fileData) (io.ReadCloser, error) {
	parts := make([]part, 0, 2)
	if file != nil {
		parts = append(parts, part{FileData: file})
	}
	parts = append(parts, part{Text: req.Prompt})

	payload := generateRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{Temperature: c.cfg.Temperature},
	}
	if req.WebSearch {
		payload.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s:streamGenerateContent?alt=sse", c.cfg.BaseURL, c.cfg.APIVersion, modelPath(req.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	c.log.Debug("opening stream",
		zap.String("model", req.Model),
		zap.Bool("file", file != nil),
		zap.Bool("web_search", req.WebSearch),
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: stream request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &analysis.ProviderError{
			Provider: analysis.ProviderGemini,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(respBody)),
		}
	}
	return resp.Body, nil
}

// modelPath accepts both bare ids and "models/..." or "tunedModels/..." names.
func modelPath(model string) string {
	if strings.HasPrefix(model, "models/") || strings.HasPrefix(model, "tunedModels/") {
		return model
	}
	return "models/" + model
}

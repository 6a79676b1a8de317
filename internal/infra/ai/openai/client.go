// Package openai holds the adapters for vendors speaking the OpenAI chat
// completions protocol: Groq (multimodal) and Cerebras (text only).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bryanwahyu/vectora/internal/config"
	"github.com/bryanwahyu/vectora/internal/domain/analysis"
	"github.com/bryanwahyu/vectora/internal/infra/sse"
)

// Client is the protocol core shared by the vendor adapters. Requests are
// built with go-openai types; the stream is decoded here so that one broken
// chunk does not end the answer.
type Client struct {
	id   analysis.ProviderID
	cfg  config.Provider
	http *http.Client
	api  *openai.Client
	log  *zap.Logger
}

func newClient(id analysis.ProviderID, cfg config.Provider, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = httpClient

	return &Client{
		id:   id,
		cfg:  cfg,
		http: httpClient,
		api:  openai.NewClientWithConfig(oc),
		log:  log.Named(string(id)),
	}
}

func (c *Client) Name() analysis.ProviderID { return c.id }

func (c *Client) chatRequest(model string, msg openai.ChatCompletionMessage) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Stream:      true,
		Temperature: c.cfg.Temperature,
	}
}

// stream posts req and relays the decoded deltas to yield.
func (c *Client) stream(ctx context.Context, req openai.ChatCompletionRequest, yield func(analysis.Fragment, error) bool) {
	body, err := c.openStream(ctx, req)
	if err != nil {
		yield(analysis.Fragment{}, err)
		return
	}
	defer body.Close()

	for frag, err := range DecodeStream(c.id, body) {
		if !yield(frag, err) || err != nil {
			return
		}
	}
}

func (c *Client) openStream(ctx context.Context, req openai.ChatCompletionRequest) (io.ReadCloser, error) {
	if c.cfg.APIKey == "" {
		return nil, analysis.MissingKeyError(c.id)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", c.id, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.id, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	c.log.Debug("opening stream", zap.String("model", req.Model), zap.Int("payload_bytes", len(payload)))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: stream request: %w", c.id, err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &analysis.ProviderError{
			Provider: c.id,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(respBody)),
		}
	}
	return resp.Body, nil
}

// DecodeStream turns an OpenAI-style SSE body into text fragments. It stops
// at the [DONE] sentinel and skips chunks that fail to decode.
func DecodeStream(id analysis.ProviderID, r io.Reader) iter.Seq2[analysis.Fragment, error] {
	return func(yield func(analysis.Fragment, error) bool) {
		rd := sse.NewReader(r)
		for {
			data, err := rd.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(analysis.Fragment{}, fmt.Errorf("%s: read stream: %w", id, err))
				return
			}
			if data == sse.Done {
				return
			}

			var chunk openai.ChatCompletionStreamResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(analysis.TextFragment(chunk.Choices[0].Delta.Content), nil) {
				return
			}
		}
	}
}

// ListModels fetches the vendor's /models list. Every entry is text-only.
func (c *Client) ListModels(ctx context.Context) ([]analysis.ModelInfo, error) {
	if c.cfg.APIKey == "" {
		return nil, analysis.MissingKeyError(c.id)
	}
	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: list models: %w", c.id, err)
	}
	out := make([]analysis.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, analysis.ModelInfo{ID: m.ID, Capabilities: []string{analysis.CapText}})
	}
	return out, nil
}

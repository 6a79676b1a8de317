package gemini

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/genai"

	"github.com/bryanwahyu/vectora/internal/domain/analysis"
)

func (c *Client) genaiClient(ctx context.Context) (*genai.Client, error) {
	if c.cfg.APIKey == "" {
		return nil, analysis.MissingKeyError(analysis.ProviderGemini)
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     c.cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.http,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.cfg.BaseURL + "/",
			APIVersion: c.cfg.APIVersion,
		},
	})
}

// ListModels returns the models that support generateContent.
func (c *Client) ListModels(ctx context.Context) ([]analysis.ModelInfo, error) {
	gc, err := c.genaiClient(ctx)
	if err != nil {
		return nil, err
	}
	page, err := gc.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1000})
	if err != nil {
		return nil, fmt.Errorf("gemini: list models: %w", err)
	}

	var out []analysis.ModelInfo
	for _, m := range page.Items {
		if m == nil || !slices.Contains(m.SupportedActions, "generateContent") {
			continue
		}
		out = append(out, analysis.ModelInfo{
			ID:           strings.TrimPrefix(m.Name, "models/"),
			Capabilities: []string{analysis.CapText, analysis.CapImage, analysis.CapWebSearch},
		})
	}
	return out, nil
}

// Generator performs one non-streamed generateContent call.
type Generator struct {
	client *Client
	model  string
}

func (c *Client) Generator(model string) *Generator {
	return &Generator{client: c, model: model}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	gc, err := g.client.genaiClient(ctx)
	if err != nil {
		return "", err
	}
	resp, err := gc.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.client.cfg.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	return resp.Text(), nil
}

package openai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bryanwahyu/vectora/internal/config"
	"github.com/bryanwahyu/vectora/internal/domain/analysis"
	"github.com/bryanwahyu/vectora/internal/infra/media"
)

// Rasterizer renders the first pages of a PDF to JPEG files.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string) ([]string, error)
}

// Groq inlines images, and PDFs rendered to images, as base64 data URLs.
type Groq struct {
	*Client
	raster Rasterizer
}

func NewGroq(cfg config.Provider, httpClient *http.Client, raster Rasterizer, log *zap.Logger) *Groq {
	return &Groq{Client: newClient(analysis.ProviderGroq, cfg, httpClient, log), raster: raster}
}

func (g *Groq) Stream(ctx context.Context, req analysis.AnalysisRequest) iter.Seq2[analysis.Fragment, error] {
	return func(yield func(analysis.Fragment, error) bool) {
		msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt}

		if req.File != nil {
			if !yield(analysis.ProgressFragment("// Processing file data for Groq...\n"), nil) {
				return
			}
			images, err := g.imageURLs(ctx, req.File)
			switch {
			case errors.Is(err, analysis.ErrUnsupportedMedia):
				warn := fmt.Sprintf("// WARNING: Groq accepts images and PDFs only (%s). File ignored.\n", req.File.MediaType)
				if !yield(analysis.WarningFragment(warn), nil) {
					return
				}
			case err != nil:
				yield(analysis.Fragment{}, err)
				return
			default:
				msg = multimodalMessage(req.Prompt, images)
			}
		}

		g.stream(ctx, g.chatRequest(req.Model, msg), yield)
	}
}

// imageURLs returns the data URLs to attach.
func (g *Groq) imageURLs(ctx context.Context, f *analysis.UploadedFile) ([]string, error) {
	switch {
	case f.IsImage():
		url, err := media.DataURL(f.MediaType, f.Path)
		if err != nil {
			return nil, err
		}
		return []string{url}, nil

	case f.IsPDF():
		pages, err := g.raster.Rasterize(ctx, f.Path)
		if err != nil {
			return nil, fmt.Errorf("PDF conversion failed: %w", err)
		}
		urls := make([]string, 0, len(pages))
		for _, p := range pages {
			url, err := media.DataURL(analysis.MediaTypeJPEG, p)
			if err != nil {
				return nil, err
			}
			urls = append(urls, url)
		}
		g.log.Debug("pdf rasterized", zap.String("file", f.Name), zap.Int("pages", len(pages)))
		return urls, nil
	}
	return nil, fmt.Errorf("%w: %s", analysis.ErrUnsupportedMedia, f.MediaType)
}

func multimodalMessage(prompt string, imageURLs []string) openai.ChatCompletionMessage {
	parts := make([]openai.ChatMessagePart, 0, len(imageURLs)+1)
	parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: prompt})
	for _, url := range imageURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: url},
		})
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
}

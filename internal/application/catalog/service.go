// Package catalog assembles the model list shown to clients.
package catalog

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/vectora/internal/domain/analysis"
)

// Catalog is the /api/models body.
type Catalog struct {
	Gemini   []analysis.ModelInfo `json:"gemini"`
	Groq     []analysis.ModelInfo `json:"groq"`
	Cerebras []analysis.ModelInfo `json:"cerebras"`
}

var geminiCaps = []string{analysis.CapText, analysis.CapImage, analysis.CapWebSearch}

// GeminiFallback is served when the live Gemini listing fails or is empty.
var GeminiFallback = []analysis.ModelInfo{
	{ID: "gemini-2.0-flash", Capabilities: geminiCaps},
	{ID: "gemini-1.5-flash", Capabilities: geminiCaps},
	{ID: "gemini-1.5-pro", Capabilities: geminiCaps},
}

// GroqModels is curated; Groq is never queried live.
var GroqModels = []analysis.ModelInfo{
	{ID: "meta-llama/llama-guard-4-12b", Capabilities: []string{analysis.CapText, analysis.CapImage}},
	{ID: "meta-llama/llama-4-maverick-17b-128e-instruct", Capabilities: []string{analysis.CapText, analysis.CapImage}},
	{ID: "meta-llama/llama-4-scout-17b-16e-instruct", Capabilities: []string{analysis.CapText, analysis.CapImage}},
	{ID: "openai/gpt-oss-120b", Capabilities: []string{analysis.CapText, analysis.CapWebSearch}},
	{ID: "openai/gpt-oss-20b", Capabilities: []string{analysis.CapText, analysis.CapWebSearch}},
	{ID: "groq/compound", Capabilities: []string{analysis.CapText, analysis.CapWebSearch}},
	{ID: "groq/compound-mini", Capabilities: []string{analysis.CapText, analysis.CapWebSearch}},
	{ID: "openai/gpt-oss-safeguard-20b", Capabilities: []string{analysis.CapText, analysis.CapWebSearch}},
}

// CerebrasFallback is served when the live Cerebras listing fails or is empty.
var CerebrasFallback = []analysis.ModelInfo{
	{ID: "llama3.1-8b", Capabilities: []string{analysis.CapText}},
	{ID: "llama3.1-70b", Capabilities: []string{analysis.CapText}},
}

type Service struct {
	gemini   analysis.ModelLister
	cerebras analysis.ModelLister
	log      *zap.Logger
}

func NewService(gemini, cerebras analysis.ModelLister, log *zap.Logger) *Service {
	return &Service{gemini: gemini, cerebras: cerebras, log: log.Named("catalog")}
}

// List never fails: a vendor that cannot be listed gets its fallback.
func (s *Service) List(ctx context.Context) Catalog {
	var out Catalog
	out.Groq = GroqModels

	// Each goroutine writes its own field and always returns nil.
	var g errgroup.Group
	g.Go(func() error {
		out.Gemini = s.fetch(ctx, analysis.ProviderGemini, s.gemini, GeminiFallback)
		return nil
	})
	g.Go(func() error {
		out.Cerebras = s.fetch(ctx, analysis.ProviderCerebras, s.cerebras, CerebrasFallback)
		return nil
	})
	_ = g.Wait()
	return out
}

func (s *Service) fetch(ctx context.Context, id analysis.ProviderID, l analysis.ModelLister, fallback []analysis.ModelInfo) []analysis.ModelInfo {
	if l == nil {
		return fallback
	}
	models, err := l.ListModels(ctx)
	if err != nil {
		s.log.Warn("model listing failed, serving fallback", zap.String("provider", string(id)), zap.Error(err))
		return fallback
	}
	if len(models) == 0 {
		s.log.Warn("model listing empty, serving fallback", zap.String("provider", string(id)))
		return fallback
	}
	return models
}

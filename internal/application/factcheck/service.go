// Package factcheck selects the provider adapter for a request and relays
// its fragments to the caller.
package factcheck

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/bryanwahyu/vectora/internal/application"
	"github.com/bryanwahyu/vectora/internal/domain/analysis"
	"github.com/bryanwahyu/vectora/internal/infra/ai/prompt"
	"github.com/bryanwahyu/vectora/internal/metrics"
)

// Command is a /process submission after form parsing.
type Command struct {
	Text      string
	File      *analysis.UploadedFile
	Provider  string
	Model     string
	WebSearch bool
}

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	providers map[analysis.ProviderID]analysis.Provider
	models    map[analysis.ProviderID]string
	clock     application.Clock
	log       *zap.Logger
}

// NewService registers providers under their Name. defaultModels supplies the
// model used when a request does not name one.
func NewService(providers []analysis.Provider, defaultModels map[analysis.ProviderID]string, clock application.Clock, log *zap.Logger) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	s := &Service{
		providers: make(map[analysis.ProviderID]analysis.Provider, len(providers)),
		models:    defaultModels,
		clock:     clock,
		log:       log.Named("factcheck"),
	}
	for _, p := range providers {
		s.providers[p.Name()] = p
	}
	return s
}

// Request normalizes cmd into the request handed to the adapter.
func (s *Service) Request(cmd Command) analysis.AnalysisRequest {
	id := analysis.ParseProviderID(cmd.Provider)
	model := cmd.Model
	if model == "" {
		model = s.models[id]
	}
	return analysis.AnalysisRequest{
		Prompt:    prompt.GetFactCheckPrompt(cmd.Text),
		File:      cmd.File,
		Provider:  id,
		Model:     model,
		WebSearch: cmd.WebSearch,
	}
}

// Run streams the answer for cmd. Fragments are passed on as soon as the
// adapter produces them. An adapter failure ends the sequence with one
// error fragment; a cancelled ctx ends it without one.
func (s *Service) Run(ctx context.Context, cmd Command) iter.Seq[analysis.Fragment] {
	req := s.Request(cmd)

	return func(yield func(analysis.Fragment) bool) {
		start := s.clock.Now()
		outcome := "ok"
		defer func() {
			metrics.StreamDuration.WithLabelValues(string(req.Provider), outcome).
				Observe(s.clock.Now().Sub(start).Seconds())
		}()

		log := s.log.With(zap.String("provider", string(req.Provider)), zap.String("model", req.Model))
		emit := func(f analysis.Fragment) bool {
			metrics.FragmentsTotal.WithLabelValues(string(req.Provider), string(f.Kind)).Inc()
			return yield(f)
		}

		p, ok := s.providers[req.Provider]
		if !ok {
			outcome = "error"
			emit(ErrorFragment(fmt.Errorf("%w: provider %s is not registered", analysis.ErrConfiguration, req.Provider)))
			return
		}

		log.Info("stream started", zap.Bool("file", req.File != nil), zap.Bool("web_search", req.WebSearch))
		for frag, err := range p.Stream(ctx, req) {
			if err != nil {
				if ctx.Err() != nil {
					outcome = "canceled"
					log.Info("stream canceled by client")
					return
				}
				outcome = "error"
				log.Warn("stream failed", zap.Error(err), zap.Bool("configuration", errors.Is(err, analysis.ErrConfiguration)))
				emit(ErrorFragment(err))
				return
			}
			if !emit(frag) {
				outcome = "canceled"
				return
			}
		}
		if ctx.Err() != nil {
			outcome = "canceled"
			return
		}
		log.Info("stream finished", zap.Duration("elapsed", s.clock.Now().Sub(start)))
	}
}

// ErrorFragment is the terminal fragment written when an adapter fails mid-stream.
func ErrorFragment(err error) analysis.Fragment {
	return analysis.Fragment{Kind: analysis.KindError, Text: fmt.Sprintf("\n[SYSTEM ERROR: %s]", err)}
}

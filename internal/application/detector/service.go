// Package detector scores how likely a piece of content is AI-generated.
package detector

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/vectora/internal/domain/detection"
	"github.com/bryanwahyu/vectora/internal/infra/ai/prompt"
	"github.com/bryanwahyu/vectora/internal/metrics"
)

// UnavailableMessage is reported when the generator could not be reached.
const UnavailableMessage = "Unable to analyze"

type Service struct {
	gen     detection.Generator
	timeout time.Duration
	log     *zap.Logger
}

func NewService(gen detection.Generator, timeout time.Duration, log *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{gen: gen, timeout: timeout, log: log.Named("detector")}
}

// Check returns ErrNoContent for an empty input. Every other failure is
// folded into the neutral verdict so the caller always gets a score.
func (s *Service) Check(ctx context.Context, in detection.Input) (detection.Result, error) {
	in = in.Normalize()
	if in.Empty() {
		return detection.Result{}, detection.ErrNoContent
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.gen.Generate(ctx, prompt.GetDetectorPrompt(in))
	if err != nil {
		reason := "generator"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.DetectorFallbacks.WithLabelValues(reason).Inc()
		s.log.Warn("detector call failed", zap.String("reason", reason), zap.Error(err))
		return detection.Result{Percent: detection.NeutralPercent, Message: UnavailableMessage}, nil
	}

	res, strategy := Parse(answer)
	if strategy == "neutral" {
		metrics.DetectorFallbacks.WithLabelValues("unparsable").Inc()
	}
	s.log.Debug("detector answer parsed", zap.String("strategy", strategy), zap.Int("ai_percent", res.Percent))
	return res, nil
}

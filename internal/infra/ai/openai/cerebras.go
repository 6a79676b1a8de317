package openai

import (
	"context"
	"iter"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bryanwahyu/vectora/internal/config"
	"github.com/bryanwahyu/vectora/internal/domain/analysis"
)

// FileIgnoredWarning is emitted when a file reaches the text-only Cerebras adapter.
const FileIgnoredWarning = "// WARNING: Cerebras provider supports TEXT ONLY. File ignored.\n"

// Cerebras is text-only. Attached files are never read.
type Cerebras struct {
	*Client
}

func NewCerebras(cfg config.Provider, httpClient *http.Client, log *zap.Logger) *Cerebras {
	return &Cerebras{Client: newClient(analysis.ProviderCerebras, cfg, httpClient, log)}
}

func (c *Cerebras) Stream(ctx context.Context, req analysis.AnalysisRequest) iter.Seq2[analysis.Fragment, error] {
	return func(yield func(analysis.Fragment, error) bool) {
		if req.File != nil {
			if !yield(analysis.WarningFragment(FileIgnoredWarning), nil) {
				return
			}
		}
		msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt}
		c.stream(ctx, c.chatRequest(req.Model, msg), yield)
	}
}

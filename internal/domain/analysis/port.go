package analysis

import (
	"context"
	"iter"
)

// Provider streams a fact-check answer from one vendor.
//
// Stream returns a lazy, finite sequence that can be ranged over once.
// A non-nil error is always the last element. Malformed vendor events are
// skipped inside the adapter and never surface here.
type Provider interface {
	Name() ProviderID
	Stream(ctx context.Context, req AnalysisRequest) iter.Seq2[Fragment, error]
}

// ModelInfo is one entry of the model catalog.
type ModelInfo struct {
	ID           string   `json:"id"`
	Capabilities []string `json:"capabilities"`
}

// Capabilities advertised in the catalog.
const (
	CapText      = "text"
	CapImage     = "image"
	CapWebSearch = "web_search"
)

// ModelLister fetches the live model list of a vendor.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

package detection

import (
	"context"
	"errors"
)

// ErrNoContent is returned when none of the input fields carries content.
var ErrNoContent = errors.New("no content provided")

// Generator performs a single non-streaming completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

package analysis

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks faults in how the service is set up rather than in
// the request: a missing vendor key, a missing document renderer.
var ErrConfiguration = errors.New("configuration error")

// ErrRendererUnavailable indicates the PDF rasterizer binary could not be found.
var ErrRendererUnavailable = fmt.Errorf("%w: pdf renderer (poppler pdftoppm) is not installed or not in PATH", ErrConfiguration)

// ErrUnsupportedMedia marks an attachment the selected provider cannot read.
// Adapters turn it into a warning fragment and continue with text only.
var ErrUnsupportedMedia = errors.New("unsupported media type")

// MissingKeyError reports an unconfigured vendor API key.
func MissingKeyError(p ProviderID) error {
	return fmt.Errorf("%w: %s api key is not set", ErrConfiguration, p)
}

// ProviderError is a non-success response from a vendor.
type ProviderError struct {
	Provider ProviderID
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: API error %d: %s", e.Provider, e.Status, e.Body)
}

// UploadError is a failed Gemini file upload. It is fatal for the request.
type UploadError struct {
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("file upload failed: %s: %v", e.Reason, e.Err)
	}
	return "file upload failed: " + e.Reason
}

func (e *UploadError) Unwrap() error { return e.Err }

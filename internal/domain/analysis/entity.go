package analysis

import "strings"

// ProviderID identifies one upstream LLM vendor.
type ProviderID string

const (
	ProviderGemini   ProviderID = "gemini"
	ProviderGroq     ProviderID = "groq"
	ProviderCerebras ProviderID = "cerebras"
)

// ParseProviderID maps a caller-supplied identifier to a known provider.
// Unknown or empty values fall back to Gemini.
func ParseProviderID(s string) ProviderID {
	switch ProviderID(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderGroq:
		return ProviderGroq
	case ProviderCerebras:
		return ProviderCerebras
	default:
		return ProviderGemini
	}
}

// Supported media types after extension-based normalization.
const (
	MediaTypePDF         = "application/pdf"
	MediaTypeJPEG        = "image/jpeg"
	MediaTypePNG         = "image/png"
	MediaTypeOctetStream = "application/octet-stream"
)

// UploadedFile is a user upload saved into the request's scratch workspace.
type UploadedFile struct {
	Path      string
	Name      string
	MediaType string
	Size      int64
}

func (f *UploadedFile) IsImage() bool {
	return f != nil && strings.HasPrefix(f.MediaType, "image/")
}

func (f *UploadedFile) IsPDF() bool {
	return f != nil && f.MediaType == MediaTypePDF
}

// AnalysisRequest is the normalized fact-check request handed to an adapter.
// Prompt already carries the system prompt.
type AnalysisRequest struct {
	Prompt    string
	File      *UploadedFile
	Provider  ProviderID
	Model     string
	WebSearch bool
}

// FragmentKind tags where a fragment came from. Every kind is written to the
// caller as plain text; the kind only feeds logs and metrics.
type FragmentKind string

const (
	KindText     FragmentKind = "text"
	KindProgress FragmentKind = "progress"
	KindWarning  FragmentKind = "warning"
	KindSources  FragmentKind = "sources"
	KindError    FragmentKind = "error"
)

// Fragment is one incremental unit of output.
type Fragment struct {
	Kind FragmentKind
	Text string
}

func TextFragment(s string) Fragment     { return Fragment{Kind: KindText, Text: s} }
func ProgressFragment(s string) Fragment { return Fragment{Kind: KindProgress, Text: s} }
func WarningFragment(s string) Fragment  { return Fragment{Kind: KindWarning, Text: s} }

// Source is one grounding citation.
type Source struct {
	Title string
	URL   string
}

package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/bryanwahyu/vectora/internal/domain/analysis"
	"github.com/bryanwahyu/vectora/internal/infra/sse"
)

type streamEvent struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content struct {
		Parts []struct {
			Text    string `json:"text"`
			Thought bool   `json:"thought"`
		} `json:"parts"`
	} `json:"content"`
	GroundingMetadata *struct {
		GroundingChunks []struct {
			Web *struct {
				URI   string `json:"uri"`
				URL   string `json:"url"`
				Title string `json:"title"`
			} `json:"web"`
		} `json:"groundingChunks"`
	} `json:"groundingMetadata"`
}

func (e *streamEvent) text() string {
	if len(e.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range e.Candidates[0].Content.Parts {
		if !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func (e *streamEvent) sources() []analysis.Source {
	if len(e.Candidates) == 0 || e.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []analysis.Source
	for _, chunk := range e.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil {
			continue
		}
		url := chunk.Web.URI
		if url == "" {
			url = chunk.Web.URL
		}
		out = append(out, analysis.Source{Title: chunk.Web.Title, URL: url})
	}
	return out
}

// DecodeStream turns a Gemini SSE body into fragments. Lines that are not
// valid JSON are skipped. Grounding sources seen anywhere in the stream are
// appended as one block after the last text fragment.
func DecodeStream(r io.Reader) iter.Seq2[analysis.Fragment, error] {
	return func(yield func(analysis.Fragment, error) bool) {
		rd := sse.NewReader(r)
		var sources []analysis.Source

		for {
			data, err := rd.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(analysis.Fragment{}, fmt.Errorf("gemini: read stream: %w", err))
				return
			}

			var ev streamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				continue
			}
			if text := ev.text(); text != "" {
				if !yield(analysis.TextFragment(text), nil) {
					return
				}
			}
			sources = append(sources, ev.sources()...)
		}

		if block := RenderSources(sources); block != "" {
			yield(analysis.Fragment{Kind: analysis.KindSources, Text: block}, nil)
		}
	}
}

// RenderSources formats the "Verified Sources" block. Only entries whose URL
// starts with "http" are listed, each URL once; without any such entry the
// result is empty.
func RenderSources(sources []analysis.Source) string {
	var b strings.Builder
	seen := make(map[string]bool)
	for _, s := range sources {
		if !strings.HasPrefix(s.URL, "http") || seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = "Source"
		}
		fmt.Fprintf(&b, "- %s: %s\n", title, s.URL)
	}
	if b.Len() == 0 {
		return ""
	}
	return "\n\n**Verified Sources:**\n" + b.String()
}

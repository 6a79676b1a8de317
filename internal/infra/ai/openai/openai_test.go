package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/vectora/internal/config"
	"github.com/bryanwahyu/vectora/internal/domain/analysis"
)

func collect(seq func(func(analysis.Fragment, error) bool)) ([]analysis.Fragment, error) {
	var frags []analysis.Fragment
	for f, err := range seq {
		if err != nil {
			return frags, err
		}
		frags = append(frags, f)
	}
	return frags, nil
}

func joined(frags []analysis.Fragment) string {
	var b strings.Builder
	for _, f := range frags {
		b.WriteString(f.Text)
	}
	return b.String()
}

func chunk(s string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"index": 0, "delta": map[string]any{"content": s}}},
	})
	return "data: " + string(b) + "\n\n"
}

type fakeVendor struct {
	t      *testing.T
	srv    *httptest.Server
	status int
	body   string

	mu       sync.Mutex
	requests []map[string]any
	auth     string
}

func newFakeVendor(t *testing.T, body string) *fakeVendor {
	f := &fakeVendor{t: t, status: http.StatusOK, body: body}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&payload))
		f.mu.Lock()
		f.requests = append(f.requests, payload)
		f.auth = r.Header.Get("Authorization")
		f.mu.Unlock()

		if f.status != http.StatusOK {
			http.Error(w, `{"error":{"message":"rate limited"}}`, f.status)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, f.body)
	})
	mux.HandleFunc("GET /models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"object":"list","data":[{"id":"llama3.1-8b","object":"model"},{"id":"llama-3.3-70b","object":"model"}]}`)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeVendor) cfg() config.Provider {
	return config.Provider{APIKey: "test-key", BaseURL: f.srv.URL + "/", Temperature: 0.2}
}

func (f *fakeVendor) lastRequest() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(f.t, f.requests)
	return f.requests[len(f.requests)-1]
}

type fakeRasterizer struct {
	pages []string
	err   error
}

func (r fakeRasterizer) Rasterize(context.Context, string) ([]string, error) {
	return r.pages, r.err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestDecodeStreamStopsAtDone(t *testing.T) {
	body := chunk("Hello") +
		"data: {\"choices\":[{\"delta\":{\"content\":\"brok\n\n" +
		": keep-alive\n\n" +
		chunk("") +
		chunk(" world") +
		"data: [DONE]\n\n" +
		chunk("after done")

	frags, err := collect(DecodeStream(analysis.ProviderGroq, strings.NewReader(body)))
	require.NoError(t, err)
	assert.Equal(t, "Hello world", joined(frags))
}

func TestDecodeStreamSkipsErrorPayloads(t *testing.T) {
	body := chunk("a") + `data: {"error":{"message":"overloaded"}}` + "\n\n" + chunk("b")

	frags, err := collect(DecodeStream(analysis.ProviderCerebras, strings.NewReader(body)))
	require.NoError(t, err)
	assert.Equal(t, "ab", joined(frags))
}

func TestGroqTextOnly(t *testing.T) {
	v := newFakeVendor(t, chunk("TRUE")+chunk(". Verified.")+"data: [DONE]\n\n")
	g := NewGroq(v.cfg(), v.srv.Client(), fakeRasterizer{}, zap.NewNop())

	frags, err := collect(g.Stream(context.Background(), analysis.AnalysisRequest{
		Prompt: "is water wet?", Model: "llama3-70b-8192",
	}))
	require.NoError(t, err)
	assert.Equal(t, "TRUE. Verified.", joined(frags))

	req := v.lastRequest()
	assert.Equal(t, "llama3-70b-8192", req["model"])
	assert.Equal(t, true, req["stream"])
	assert.InDelta(t, 0.2, req["temperature"], 0.001)
	msgs := req["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "is water wet?", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "Bearer test-key", v.auth)
}

func TestGroqInlinesImage(t *testing.T) {
	v := newFakeVendor(t, chunk("ok")+"data: [DONE]\n\n")
	g := NewGroq(v.cfg(), v.srv.Client(), fakeRasterizer{}, zap.NewNop())
	path := writeFile(t, "photo.png", []byte("png-bytes"))

	frags, err := collect(g.Stream(context.Background(), analysis.AnalysisRequest{
		Prompt: "check",
		Model:  "llama-3.2-90b-vision-preview",
		File:   &analysis.UploadedFile{Path: path, Name: "photo.png", MediaType: analysis.MediaTypePNG},
	}))
	require.NoError(t, err)
	require.Len(t, frags, 2)
	assert.Equal(t, analysis.KindProgress, frags[0].Kind)
	assert.True(t, strings.HasPrefix(frags[0].Text, "// Processing"))
	assert.Equal(t, "ok", frags[1].Text)

	parts := v.lastRequest()["messages"].([]any)[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	assert.Equal(t, "check", parts[0].(map[string]any)["text"])
	img := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,cG5nLWJ5dGVz", img["url"])
}

func TestGroqRasterizesPDF(t *testing.T) {
	v := newFakeVendor(t, chunk("ok")+"data: [DONE]\n\n")
	var pages []string
	for i := 1; i <= 3; i++ {
		pages = append(pages, writeFile(t, fmt.Sprintf("page-%d.jpg", i), []byte{byte(i)}))
	}
	g := NewGroq(v.cfg(), v.srv.Client(), fakeRasterizer{pages: pages}, zap.NewNop())

	_, err := collect(g.Stream(context.Background(), analysis.AnalysisRequest{
		Prompt: "check",
		File:   &analysis.UploadedFile{Path: "/tmp/doc.pdf", Name: "doc.pdf", MediaType: analysis.MediaTypePDF},
	}))
	require.NoError(t, err)

	parts := v.lastRequest()["messages"].([]any)[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 4)
	for _, p := range parts[1:] {
		url := p.(map[string]any)["image_url"].(map[string]any)["url"].(string)
		assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))
	}
}

func TestGroqRendererUnavailable(t *testing.T) {
	v := newFakeVendor(t, "")
	g := NewGroq(v.cfg(), v.srv.Client(), fakeRasterizer{err: analysis.ErrRendererUnavailable}, zap.NewNop())

	_, err := collect(g.Stream(context.Background(), analysis.AnalysisRequest{
		Prompt: "check",
		File:   &analysis.UploadedFile{Path: "/tmp/doc.pdf", MediaType: analysis.MediaTypePDF},
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrRendererUnavailable)
	assert.ErrorIs(t, err, analysis.ErrConfiguration)

	v.mu.Lock()
	defer v.mu.Unlock()
	assert.Empty(t, v.requests)
}

func TestGroqUnsupportedFileIsIgnored(t *testing.T) {
	v := newFakeVendor(t, chunk("text answer")+"data: [DONE]\n\n")
	g := NewGroq(v.cfg(), v.srv.Client(), fakeRasterizer{}, zap.NewNop())

	frags, err := collect(g.Stream(context.Background(), analysis.AnalysisRequest{
		Prompt: "check",
		File:   &analysis.UploadedFile{Path: "/tmp/blob.bin", MediaType: analysis.MediaTypeOctetStream},
	}))
	require.NoError(t, err)
	require.Len(t, frags, 3)
	assert.Equal(t, analysis.KindWarning, frags[1].Kind)
	assert.Equal(t, "check", v.lastRequest()["messages"].([]any)[0].(map[string]any)["content"])
}

func TestCerebrasWarnsAndIgnoresFile(t *testing.T) {
	v := newFakeVendor(t, chunk("answer")+"data: [DONE]\n\n")
	c := NewCerebras(v.cfg(), v.srv.Client(), zap.NewNop())

	frags, err := collect(c.Stream(context.Background(), analysis.AnalysisRequest{
		Prompt: "check",
		Model:  "llama3.1-70b",
		File:   &analysis.UploadedFile{Path: "/does/not/exist.png", MediaType: analysis.MediaTypePNG},
	}))
	require.NoError(t, err)
	require.Len(t, frags, 2)
	assert.Equal(t, analysis.WarningFragment(FileIgnoredWarning), frags[0])
	assert.Equal(t, "answer", frags[1].Text)
	assert.Equal(t, "check", v.lastRequest()["messages"].([]any)[0].(map[string]any)["content"])
}

func TestProviderErrorStatus(t *testing.T) {
	v := newFakeVendor(t, "")
	v.status = http.StatusTooManyRequests
	c := NewCerebras(v.cfg(), v.srv.Client(), zap.NewNop())

	_, err := collect(c.Stream(context.Background(), analysis.AnalysisRequest{Prompt: "x"}))
	var perr *analysis.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusTooManyRequests, perr.Status)
	assert.Equal(t, analysis.ProviderCerebras, perr.Provider)
	assert.Contains(t, perr.Body, "rate limited")
}

func TestMissingKey(t *testing.T) {
	g := NewGroq(config.Provider{BaseURL: "http://127.0.0.1:0"}, nil, fakeRasterizer{}, zap.NewNop())
	_, err := collect(g.Stream(context.Background(), analysis.AnalysisRequest{Prompt: "x"}))
	assert.ErrorIs(t, err, analysis.ErrConfiguration)

	c := NewCerebras(config.Provider{}, nil, zap.NewNop())
	_, err = c.ListModels(context.Background())
	assert.ErrorIs(t, err, analysis.ErrConfiguration)
}

func TestCerebrasListModels(t *testing.T) {
	v := newFakeVendor(t, "")
	c := NewCerebras(v.cfg(), v.srv.Client(), zap.NewNop())

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []analysis.ModelInfo{
		{ID: "llama3.1-8b", Capabilities: []string{analysis.CapText}},
		{ID: "llama-3.3-70b", Capabilities: []string{analysis.CapText}},
	}, models)
}

func TestStreamStopsWhenConsumerBreaks(t *testing.T) {
	v := newFakeVendor(t, chunk("one")+chunk("two")+chunk("three")+"data: [DONE]\n\n")
	c := NewCerebras(v.cfg(), v.srv.Client(), zap.NewNop())

	var got []string
	for f, err := range c.Stream(context.Background(), analysis.AnalysisRequest{Prompt: "x"}) {
		require.NoError(t, err)
		got = append(got, f.Text)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"one", "two"}, got)
}

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bryanwahyu/vectora/internal/application/catalog"
	"github.com/bryanwahyu/vectora/internal/application/factcheck"
	"github.com/bryanwahyu/vectora/internal/domain/analysis"
	"github.com/bryanwahyu/vectora/internal/domain/detection"
	"github.com/bryanwahyu/vectora/internal/infra/storage"
	"github.com/bryanwahyu/vectora/internal/middleware"
)

type FactChecker interface {
	Run(ctx context.Context, cmd factcheck.Command) iter.Seq[analysis.Fragment]
}

type Detector interface {
	Check(ctx context.Context, in detection.Input) (detection.Result, error)
}

type ModelCatalog interface {
	List(ctx context.Context) catalog.Catalog
}

type Uploads interface {
	Save(filename, declaredType string, r io.Reader) (*analysis.UploadedFile, storage.Release, error)
}

// ExtensionKeys is the /api/extension/keys body.
type ExtensionKeys struct {
	Gemini   string `json:"gemini"`
	Groq     string `json:"groq"`
	Cerebras string `json:"cerebras"`
}

// Deps wires the router. ExposeKeys must be set explicitly for the key
// endpoint to answer; it returns the vendor keys in plaintext.
type Deps struct {
	FactCheck      FactChecker
	Detector       Detector
	Catalog        ModelCatalog
	Uploads        Uploads
	Keys           ExtensionKeys
	ExposeKeys     bool
	MaxUploadBytes int64
	AllowedOrigins []string
	Ready          []middleware.Check
	Log            *zap.Logger
}

type Router struct {
	Deps
}

const (
	maxMemory      = 8 << 20
	maxDetectBytes = 1 << 20
)

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 20 << 20
	}
	r := &Router{Deps: d}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.LoggingMiddleware(d.Log))
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler(d.Ready))
	mux.Handle("/metrics", promhttp.Handler())

	mux.Get("/api/models", r.wrap(r.handleModels))
	mux.Get("/api/extension/keys", r.wrap(r.handleExtensionKeys))
	mux.Post("/process", r.wrap(r.handleProcess))
	mux.Post("/ai-check", r.wrap(r.handleAICheck))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// apiError carries the exact status and JSON body a handler wants on failure.
type apiError struct {
	status int
	body   any
	err    error
}

func (e *apiError) Error() string { return e.err.Error() }
func (e *apiError) Unwrap() error { return e.err }

func systemError(status int, err error) error {
	return &apiError{status: status, body: map[string]string{"reply": "System Error: " + err.Error()}, err: err}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var ae *apiError
		switch {
		case errors.As(err, &ae):
			if ae.status >= http.StatusInternalServerError {
				r.Log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			}
			writeJSON(w, ae.status, ae.body)
		case errors.Is(err, detection.ErrNoContent):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No content provided"})
		default:
			r.Log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// GET /api/models
func (r *Router) handleModels(w http.ResponseWriter, req *http.Request) error {
	writeJSON(w, http.StatusOK, r.Catalog.List(req.Context()))
	return nil
}

// GET /api/extension/keys
// Hands the vendor keys to any origin CORS lets through. Off unless
// extension.exposeKeys is set.
func (r *Router) handleExtensionKeys(w http.ResponseWriter, req *http.Request) error {
	if !r.ExposeKeys {
		return &apiError{status: http.StatusNotFound, body: map[string]string{"error": "not found"}, err: errors.New("extension keys endpoint disabled")}
	}
	r.Log.Warn("serving vendor API keys in plaintext",
		zap.String("ip", req.RemoteAddr),
		zap.String("origin", req.Header.Get("Origin")),
		zap.String("request_id", chimw.GetReqID(req.Context())),
	)
	writeJSON(w, http.StatusOK, r.Keys)
	return nil
}

// POST /process
// Form: user_input, provider, model, web_search, file (all optional).
// The answer is streamed as plain text and flushed per fragment.
func (r *Router) handleProcess(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.MaxUploadBytes)
	if err := req.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return systemError(http.StatusInternalServerError, err)
	}
	defer func() {
		if req.MultipartForm != nil {
			req.MultipartForm.RemoveAll()
		}
	}()

	cmd := factcheck.Command{
		Text:      middleware.SanitizeString(req.FormValue("user_input")),
		Provider:  req.FormValue("provider"),
		Model:     req.FormValue("model"),
		WebSearch: middleware.ParseBool(req.FormValue("web_search")),
	}
	if err := middleware.ValidateUserInput(cmd.Text); err != nil {
		return systemError(http.StatusBadRequest, err)
	}
	if err := middleware.ValidateModel(cmd.Model); err != nil {
		return systemError(http.StatusBadRequest, err)
	}

	file, hdr, err := req.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return systemError(http.StatusInternalServerError, err)
	default:
		defer file.Close()
		if hdr.Filename != "" {
			saved, release, err := r.Uploads.Save(hdr.Filename, hdr.Header.Get("Content-Type"), file)
			if err != nil {
				return systemError(http.StatusInternalServerError, err)
			}
			defer release()
			cmd.File = saved
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	for frag := range r.FactCheck.Run(req.Context(), cmd) {
		if _, err := io.WriteString(w, frag.Text); err != nil {
			r.Log.Debug("client went away", zap.Error(err))
			return nil
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			r.Log.Debug("flush failed", zap.Error(err))
			return nil
		}
	}
	return nil
}

// POST /ai-check
// Body: {"text": "...", "image_url": "...", "video_url": "..."}
func (r *Router) handleAICheck(w http.ResponseWriter, req *http.Request) error {
	var in detection.Input
	if err := json.NewDecoder(io.LimitReader(req.Body, maxDetectBytes)).Decode(&in); err != nil {
		return detection.ErrNoContent
	}

	res, err := r.Detector.Check(req.Context(), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/vectora/internal/application"
	"github.com/bryanwahyu/vectora/internal/application/catalog"
	"github.com/bryanwahyu/vectora/internal/application/detector"
	"github.com/bryanwahyu/vectora/internal/application/factcheck"
	"github.com/bryanwahyu/vectora/internal/config"
	"github.com/bryanwahyu/vectora/internal/domain/analysis"
	"github.com/bryanwahyu/vectora/internal/infra/ai/gemini"
	oaicompat "github.com/bryanwahyu/vectora/internal/infra/ai/openai"
	"github.com/bryanwahyu/vectora/internal/infra/httpserver"
	"github.com/bryanwahyu/vectora/internal/infra/media"
	"github.com/bryanwahyu/vectora/internal/infra/storage"
	"github.com/bryanwahyu/vectora/internal/logger"
	"github.com/bryanwahyu/vectora/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer log.Sync()

	scratch, err := storage.New(cfg.Storage.UploadDir)
	if err != nil {
		log.Fatal("scratch storage init error", zap.Error(err))
	}

	raster := media.NewRasterizer(cfg.Media)
	if err := raster.Available(); err != nil {
		log.Warn("PDF uploads to groq will fail", zap.Error(err))
	}

	for name, p := range map[analysis.ProviderID]config.Provider{
		analysis.ProviderGemini:   cfg.Gemini,
		analysis.ProviderGroq:     cfg.Groq,
		analysis.ProviderCerebras: cfg.Cerebras,
	} {
		if p.APIKey == "" {
			log.Warn("api key not set; requests to this provider will fail", zap.String("provider", string(name)))
		}
	}
	if cfg.Extension.ExposeKeys {
		log.Warn("extension.exposeKeys is on: GET /api/extension/keys returns vendor keys in plaintext")
	}

	// Streams can run for minutes; cancellation comes from the request context.
	httpClient := &http.Client{}

	gem := gemini.NewClient(cfg.Gemini, httpClient, log)
	groq := oaicompat.NewGroq(cfg.Groq, httpClient, raster, log)
	cerebras := oaicompat.NewCerebras(cfg.Cerebras, httpClient, log)

	factSvc := factcheck.NewService(
		[]analysis.Provider{gem, groq, cerebras},
		map[analysis.ProviderID]string{
			analysis.ProviderGemini:   cfg.Gemini.DefaultModel,
			analysis.ProviderGroq:     cfg.Groq.DefaultModel,
			analysis.ProviderCerebras: cfg.Cerebras.DefaultModel,
		},
		application.SystemClock{},
		log,
	)
	detectSvc := detector.NewService(gem.Generator(cfg.Detector.Model), cfg.Detector.Timeout, log)
	catalogSvc := catalog.NewService(gem, cerebras, log)

	handler := httpserver.NewRouter(httpserver.Deps{
		FactCheck: factSvc,
		Detector:  detectSvc,
		Catalog:   catalogSvc,
		Uploads:   scratch,
		Keys: httpserver.ExtensionKeys{
			Gemini:   cfg.Gemini.APIKey,
			Groq:     cfg.Groq.APIKey,
			Cerebras: cfg.Cerebras.APIKey,
		},
		ExposeKeys:     cfg.Extension.ExposeKeys,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Ready: []middleware.Check{
			{Name: "scratch", Critical: true, Checker: middleware.CheckFunc(scratch.Writable)},
			{Name: "pdf_renderer", Critical: false, Checker: middleware.CheckFunc(raster.Available)},
		},
		Log: log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout, // 0: /process streams for as long as the vendor does
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

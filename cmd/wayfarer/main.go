package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/wayfarer/internal/api"
	"github.com/tjfontaine/wayfarer/internal/config"
	"github.com/tjfontaine/wayfarer/internal/domain"
	"github.com/tjfontaine/wayfarer/internal/imagery"
	"github.com/tjfontaine/wayfarer/internal/pipeline"
	"github.com/tjfontaine/wayfarer/internal/provider"
	"github.com/tjfontaine/wayfarer/internal/provider/gemini"
	"github.com/tjfontaine/wayfarer/internal/provider/pexels"
	"github.com/tjfontaine/wayfarer/internal/provider/unsplash"
	"github.com/tjfontaine/wayfarer/internal/provider/wikipedia"
	"github.com/tjfontaine/wayfarer/internal/server"
	"github.com/tjfontaine/wayfarer/internal/storage"
	"github.com/tjfontaine/wayfarer/internal/storage/memory"
	"github.com/tjfontaine/wayfarer/internal/storage/sqldb"
	"github.com/tjfontaine/wayfarer/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

// run wires and serves the process. Returning instead of exiting lets the
// deferred tracer shutdown and Sentry flush run on every path.
func run() int {
	configPath := flag.String("config", os.Getenv("WAYFARER_CONFIG"), "path to config.yaml")
	traceOut := flag.String("trace-out", "", "write spans to this file (default: discard)")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		return 1
	}

	// Initialize OpenTelemetry
	var spans io.Writer = io.Discard
	if *traceOut != "" {
		f, err := os.OpenFile(*traceOut, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Error("failed to open trace output", slog.String("error", err.Error()))
			return 1
		}
		defer f.Close()
		spans = f
	}
	shutdownTracer, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, cfg.Telemetry.Environment, spans, logger)
	if err != nil {
		logger.Error("failed to initialize tracer", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	if telemetry.InitSentry(cfg.Telemetry.SentryDSN, cfg.Telemetry.Environment, version, logger) {
		defer telemetry.FlushSentry(2 * time.Second)
	}

	if cfg.Gemini.APIKey == "" {
		err := domain.ErrConfiguration("API Key missing.")
		logger.Error("gemini api key is not configured",
			slog.String("hint", "set WAYFARER_GEMINI__API_KEY or API_KEY"),
			slog.String("error", err.Error()))
		telemetry.CaptureError(context.Background(), err, map[string]string{"phase": "startup"})
		return 1
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		logger.Error("failed to open storage", slog.String("error", err.Error()))
		telemetry.CaptureError(context.Background(), err, map[string]string{"phase": "startup"})
		return 1
	}
	defer store.Close()

	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	generator, err := gemini.New(ctx, cfg.Gemini.APIKey,
		gemini.WithModel(cfg.Gemini.Model),
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
		gemini.WithHTTPClient(httpClient),
		gemini.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create generator", slog.String("error", err.Error()))
		telemetry.CaptureError(ctx, err, map[string]string{"phase": "startup"})
		return 1
	}

	searchers := []provider.ImageSearcher{
		unsplash.New(cfg.Images.Unsplash.AccessKey,
			unsplash.WithBaseURL(cfg.Images.Unsplash.BaseURL),
			unsplash.WithHTTPClient(httpClient),
			unsplash.WithResults(cfg.Images.Results),
		),
		pexels.New(cfg.Images.Pexels.APIKey,
			pexels.WithBaseURL(cfg.Images.Pexels.BaseURL),
			pexels.WithHTTPClient(httpClient),
			pexels.WithResults(cfg.Images.Results),
		),
	}
	for _, s := range searchers {
		logger.Info("image provider", slog.String("name", s.Name()), slog.Bool("configured", s.Configured()))
	}

	images := imagery.New(searchers,
		imagery.WithTimeout(cfg.Images.Timeout),
		imagery.WithSummaryLookup(wikipedia.New(
			wikipedia.WithEnabled(cfg.Images.Wikipedia.Enabled),
			wikipedia.WithBaseURL(cfg.Images.Wikipedia.BaseURL),
			wikipedia.WithHTTPClient(httpClient),
		)),
		imagery.WithLogger(logger),
	)

	planner := pipeline.NewPlanner(generator, images,
		pipeline.WithGenerationTimeout(cfg.Gemini.Timeout),
		pipeline.WithTemperature(cfg.Gemini.Temperature),
		pipeline.WithMaxPromptTokens(cfg.Gemini.MaxPromptTokens),
		pipeline.WithLogger(logger),
	)

	srv := server.New(server.Options{
		Port:           cfg.Server.Port,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
			TrustedProxies:    cfg.Server.TrustedProxies,
		},
	}, logger)
	api.NewHandler(planner, store, logger).RegisterRoutes(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("wayfarer started",
		slog.String("version", version),
		slog.String("model", generator.Model()),
		slog.String("storage", cfg.Storage.Driver))

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	code := 0
	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", slog.String("error", err.Error()))
			telemetry.CaptureError(ctx, err, map[string]string{"phase": "serve"})
			code = 1
		}
	}
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		code = 1
	}

	logger.Info("shutdown complete")
	return code
}

func openStore(cfg config.StorageConfig) (storage.TripStore, error) {
	switch cfg.Driver {
	case "sqlite", "postgres":
		return sqldb.New(sqldb.Config{Driver: cfg.Driver, DSN: cfg.DSN, HistoryLimit: cfg.HistoryLimit})
	default:
		return memory.New(cfg.HistoryLimit)
	}
}

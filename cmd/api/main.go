package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"uigen/internal/bootstrap"
	"uigen/internal/generation"
	"uigen/internal/http/handlers"
	httpapi "uigen/internal/http/httpapi"
	"uigen/internal/infra"
	"uigen/internal/infra/geoip"
	"uigen/internal/metrics"
	"uigen/internal/middleware"
	"uigen/internal/sandbox"
	"uigen/internal/templates"
	"uigen/internal/validator"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := metrics.NewRegistry()
	shutdownTelemetry, err := infra.InitTelemetry(cfg.TracingEnabled, os.Stdout, registry.SDK())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init telemetry")
	}
	jobMetrics, err := metrics.NewJobMetricsWithMeter(registry.Meter())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register job metrics")
	}

	store, err := bootstrap.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	engine := templates.MustEngine()
	provider, err := bootstrap.NewProvider(ctx, cfg, store.Credentials, engine, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure model provider")
	}
	v := validator.New(logger)

	docs, err := bootstrap.NewPreviewStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure preview storage")
	}
	previews := sandbox.NewRenderer(v, sandbox.Options{
		BaseURL:      cfg.PreviewBaseURL,
		ReadyTimeout: cfg.PreviewReadyTimeout,
		Store:        docs,
	}, logger)

	svc := generation.NewService(generation.Deps{
		Jobs:       store.Jobs,
		Components: store.Components,
		Provider:   provider,
		Validator:  v,
		Templates:  engine,
		Metrics:    jobMetrics,
		Logger:     logger,
	}, generation.Options{
		MaxPromptLength: cfg.MaxPromptLength,
		ProviderTimeout: cfg.ProviderTimeout,
	})

	// With WORKER_CONCURRENCY=0 jobs stay PENDING for cmd/worker to claim.
	var dispatcher *generation.Dispatcher
	if cfg.WorkerConcurrency > 0 {
		opts := generation.DispatcherOptions{
			Workers:   cfg.WorkerConcurrency,
			QueueSize: cfg.WorkerQueueSize,
		}
		// Polling picks up jobs that were PENDING when a previous process stopped.
		if store.Persistent() {
			opts.PollInterval = cfg.WorkerPollInterval
			opts.Claimer = store.Jobs
		}
		dispatcher = generation.NewDispatcher(svc.Process, opts, logger)
		svc.UseQueue(dispatcher)
		dispatcher.Start(ctx)
	} else if !store.Persistent() {
		logger.Warn().Msg("WORKER_CONCURRENCY=0 without a database: jobs will never run")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := &handlers.App{
		Logger:     logger,
		Generation: svc,
		Components: store.Components,
		Validator:  v,
		Templates:  engine,
		Previews:   previews,
		Metrics:    registry,
		Ping:       store.Ping,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		JWTSecret:       cfg.JWTSecret,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "en",
		CountryLookup:   lookup,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("provider", provider.Name()).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to flush telemetry")
	}
	logger.Info().Msg("server stopped")
}

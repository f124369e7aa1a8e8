package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"uigen/internal/bootstrap"
	"uigen/internal/generation"
	"uigen/internal/infra"
	"uigen/internal/metrics"
	"uigen/internal/templates"
	"uigen/internal/validator"
)

// The worker claims PENDING generation jobs from Postgres and runs them. Run the API
// with WORKER_CONCURRENCY=0 to leave all processing to worker processes.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("process", "worker").Logger()
	if cfg.InMemory() {
		logger.Fatal().Msg("worker: DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := metrics.NewRegistry()
	shutdownTelemetry, err := infra.InitTelemetry(cfg.TracingEnabled, os.Stdout, registry.SDK())
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to init telemetry")
	}
	jobMetrics, err := metrics.NewJobMetricsWithMeter(registry.Meter())
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to register job metrics")
	}

	store, err := bootstrap.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer store.Close()

	engine := templates.MustEngine()
	provider, err := bootstrap.NewProvider(ctx, cfg, store.Credentials, engine, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure model provider")
	}

	svc := generation.NewService(generation.Deps{
		Jobs:       store.Jobs,
		Components: store.Components,
		Provider:   provider,
		Validator:  validator.New(logger),
		Templates:  engine,
		Metrics:    jobMetrics,
		Logger:     logger,
	}, generation.Options{
		MaxPromptLength: cfg.MaxPromptLength,
		ProviderTimeout: cfg.ProviderTimeout,
	})

	workers := cfg.WorkerConcurrency
	if workers <= 0 {
		workers = 1
	}
	dispatcher := generation.NewDispatcher(svc.Process, generation.DispatcherOptions{
		Workers:      workers,
		QueueSize:    cfg.WorkerQueueSize,
		PollInterval: cfg.WorkerPollInterval,
		Claimer:      store.Jobs,
	}, logger)
	dispatcher.Start(ctx)

	<-ctx.Done()
	dispatcher.Wait()

	if err := shutdownTelemetry(context.Background()); err != nil {
		logger.Error().Err(err).Msg("worker: failed to flush telemetry")
	}
	logger.Info().Msg("worker: stopped")
}

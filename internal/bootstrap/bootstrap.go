// Package bootstrap assembles the collaborators shared by the API and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"uigen/internal/adapter/memory"
	"uigen/internal/adapter/repo"
	"uigen/internal/domain"
	"uigen/internal/infra"
	"uigen/internal/infra/credentials"
	"uigen/internal/providers/model"
	"uigen/internal/sandbox"
	"uigen/internal/sqlinline"
	"uigen/internal/storage"
	"uigen/internal/templates"
)

// Storage bundles the repositories backing the service.
type Storage struct {
	Jobs        domain.JobRepository
	Components  domain.ComponentRepository
	Credentials *credentials.Store
	// Ping checks the database; nil in memory mode.
	Ping  func(ctx context.Context) error
	Close func()
}

// Persistent reports whether jobs survive a restart and can be shared between processes.
func (s *Storage) Persistent() bool { return s.Ping != nil }

// OpenStorage connects to Postgres and ensures the schema when DATABASE_URL is set.
// Otherwise state lives in process memory.
func OpenStorage(ctx context.Context, cfg *infra.Config, log zerolog.Logger) (*Storage, error) {
	if cfg.InMemory() {
		log.Warn().Msg("bootstrap: DATABASE_URL not set, keeping state in memory")
		return &Storage{
			Jobs:       memory.NewJobStore(),
			Components: memory.NewComponentStore(),
			Close:      func() {},
		}, nil
	}

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runner := infra.NewSQLRunner(pool, log)
	if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Storage{
		Jobs:        repo.NewJobRepository(runner),
		Components:  repo.NewComponentRepository(runner),
		Credentials: credentials.NewStore(runner),
		Ping:        pool.Ping,
		Close:       pool.Close,
	}, nil
}

// NewProvider builds the configured model provider behind a circuit breaker. Remote
// providers fall back to keyword analysis when category analysis fails; generation
// failures reach the orchestrator, which retries them. A missing API key degrades to
// the static provider outright.
func NewProvider(ctx context.Context, cfg *infra.Config, creds *credentials.Store, engine *templates.Engine, log zerolog.Logger) (model.Provider, error) {
	static := model.NewStaticProvider(engine)
	onFallback := func(reason string, err error) {
		log.Warn().Err(err).Str("reason", reason).Msg("provider: falling back to keyword analysis")
	}
	client := &http.Client{Timeout: cfg.ProviderTimeout}

	var inner model.Provider
	switch cfg.ModelProvider {
	case infra.ProviderGemini:
		key, err := creds.Resolve(ctx, credentials.ProviderGemini, cfg.GeminiAPIKey)
		if err != nil {
			log.Warn().Err(err).Msg("provider: failed to load gemini api key from store")
		}
		if key == "" {
			log.Warn().Msg("provider: gemini api key missing, using static provider")
			inner = static
			break
		}
		inner, err = model.NewGeminiProvider(model.GeminiOptions{
			APIKey:     key,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: client,
			Fallback:   static,
			OnFallback: onFallback,
		})
		if err != nil {
			return nil, err
		}
	case infra.ProviderOpenAI:
		key, err := creds.Resolve(ctx, credentials.ProviderOpenAI, cfg.OpenAIAPIKey)
		if err != nil {
			log.Warn().Err(err).Msg("provider: failed to load openai api key from store")
		}
		if key == "" {
			log.Warn().Msg("provider: openai api key missing, using static provider")
			inner = static
			break
		}
		inner, err = model.NewOpenAIProvider(model.OpenAIOptions{
			APIKey:       key,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			HTTPClient:   client,
			Fallback:     static,
			OnFallback:   onFallback,
			OnWarning: func(reason, detail string) {
				log.Warn().Str("reason", reason).Str("detail", detail).Msg("provider: openai option adjusted")
			},
		})
		if err != nil {
			return nil, err
		}
	default:
		inner = static
	}

	failures := cfg.BreakerFailures
	if failures < 0 {
		failures = 0
	}
	log.Info().Str("provider", inner.Name()).Msg("provider: configured")
	return model.NewGuardedProvider(inner, model.BreakerOptions{
		ConsecutiveFailures: uint32(failures),
		Logger:              log,
	}), nil
}

// NewPreviewStore keeps preview documents on disk when a path is configured.
func NewPreviewStore(cfg *infra.Config) (sandbox.DocumentStore, error) {
	if cfg.PreviewStoragePath == "" {
		return storage.NewMemoryStore(), nil
	}
	return storage.NewFileStore(cfg.PreviewStoragePath)
}

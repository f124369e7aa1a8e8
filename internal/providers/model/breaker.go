package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"uigen/internal/domain"
)

// BreakerOptions tune the circuit breaker around a provider.
type BreakerOptions struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
	Logger              zerolog.Logger
}

// GuardedProvider wraps a Provider with tracing and a circuit breaker. Only transport
// failures count against the breaker; malformed output and rate limits do not.
type GuardedProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
}

func NewGuardedProvider(inner Provider, opts BreakerOptions) *GuardedProvider {
	if opts.MaxRequests == 0 {
		opts.MaxRequests = 3
	}
	if opts.Interval == 0 {
		opts.Interval = 60 * time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ConsecutiveFailures == 0 {
		opts.ConsecutiveFailures = 5
	}
	log := opts.Logger
	settings := gobreaker.Settings{
		Name:        "model-provider-" + inner.Name(),
		MaxRequests: opts.MaxRequests,
		Interval:    opts.Interval,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrProviderFailure) && !errors.Is(err, domain.ErrProviderTimeout)
		},
	}
	return &GuardedProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		tracer:  otel.Tracer("uigen/providers/model"),
	}
}

func (p *GuardedProvider) Name() string { return p.inner.Name() }

// Open reports whether the breaker is currently rejecting calls.
func (p *GuardedProvider) Open() bool {
	return p.breaker.State() == gobreaker.StateOpen
}

func (p *GuardedProvider) Generate(ctx context.Context, req domain.GenerationRequest, category domain.Category) (*domain.GeneratedArtifact, error) {
	ctx, span := p.tracer.Start(ctx, "model.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", p.inner.Name()),
		attribute.String("category", string(category)),
		attribute.Int("prompt_length", len(req.Prompt)),
	)

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.Generate(ctx, req, category)
	})
	if err != nil {
		err = breakerError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	artifact := result.(*domain.GeneratedArtifact)
	span.SetAttributes(attribute.String("component_name", artifact.Name))
	return artifact, nil
}

func (p *GuardedProvider) Analyze(ctx context.Context, prompt string) ([]CategoryCandidate, error) {
	ctx, span := p.tracer.Start(ctx, "model.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("provider", p.inner.Name()))

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.Analyze(ctx, prompt)
	})
	if err != nil {
		err = breakerError(err)
		span.RecordError(err)
		return nil, err
	}
	return result.([]CategoryCandidate), nil
}

// breakerError turns breaker rejections into provider failures so callers classify them.
func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%v: %w", err, domain.ErrProviderFailure)
	}
	return err
}

var _ Provider = (*GuardedProvider)(nil)

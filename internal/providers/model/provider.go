package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"uigen/internal/domain"
)

const (
	staticProviderName = "static"
	geminiProviderName = "gemini"
	openAIProviderName = "openai"
)

// CategoryCandidate is one ranked guess at what a prompt asks for.
type CategoryCandidate struct {
	Category   domain.Category `json:"category"`
	Confidence float64         `json:"confidence"`
}

// Provider generates component artifacts from a request.
type Provider interface {
	Name() string
	// Generate returns a candidate artifact. Errors wrap one of the domain provider
	// sentinels so callers can classify them.
	Generate(ctx context.Context, req domain.GenerationRequest, category domain.Category) (*domain.GeneratedArtifact, error)
	// Analyze ranks likely categories. An empty result is not an error.
	Analyze(ctx context.Context, prompt string) ([]CategoryCandidate, error)
}

// statusError maps a non-2xx provider response onto a domain sentinel.
func statusError(provider string, status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s status %d: %w", provider, status, domain.ErrRateLimited)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return fmt.Errorf("%s status %d: %w", provider, status, domain.ErrProviderTimeout)
	default:
		return fmt.Errorf("%s status %d: %w", provider, status, domain.ErrProviderFailure)
	}
}

// transportError maps an http.Client error onto a domain sentinel.
func transportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request: %w", provider, domain.ErrProviderTimeout)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%s request: %w", provider, domain.ErrProviderTimeout)
	}
	return fmt.Errorf("%s request: %v: %w", provider, err, domain.ErrProviderFailure)
}

// shouldFallback reports whether a chained provider may take over a failed analysis.
// Rate limits and timeouts are reported as they are.
func shouldFallback(err error) bool {
	return errors.Is(err, domain.ErrProviderFailure)
}

package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"uigen/internal/domain"
	"uigen/internal/validator"
)

type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	// Fallback answers Analyze when the remote call fails. Generate errors are always
	// returned so the orchestrator can retry them.
	Fallback   Provider
	OnFallback func(reason string, err error)
}

type GeminiProvider struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	fallback   Provider
	onFallback func(reason string, err error)
}

const geminiDefaultTimeout = 60 * time.Second

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

func NewGeminiProvider(opts GeminiOptions) (*GeminiProvider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiProvider{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		baseURL:    baseURL,
		client:     client,
		fallback:   opts.Fallback,
		onFallback: opts.OnFallback,
	}, nil
}

func (g *GeminiProvider) Name() string { return geminiProviderName }

func (g *GeminiProvider) Generate(ctx context.Context, req domain.GenerationRequest, category domain.Category) (*domain.GeneratedArtifact, error) {
	text, err := g.complete(ctx, buildGeneratePrompt(req, category, validator.AllowedImports), 0.4)
	if err != nil {
		return nil, err
	}
	return decodeArtifact(text, category)
}

func (g *GeminiProvider) Analyze(ctx context.Context, prompt string) ([]CategoryCandidate, error) {
	text, err := g.complete(ctx, buildAnalyzePrompt(prompt), 0)
	if err != nil {
		if g.fallback != nil && shouldFallback(err) {
			g.emitFallback("analyze", err)
			return g.fallback.Analyze(ctx, prompt)
		}
		return nil, err
	}
	return decodeCandidates(text)
}

func (g *GeminiProvider) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	payload := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      temperature,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("gemini encode: %v: %w", err, domain.ErrProviderFailure)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return "", fmt.Errorf("gemini build request: %v: %w", err, domain.ErrProviderFailure)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", transportError(geminiProviderName, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", statusError(geminiProviderName, resp.StatusCode)
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini decode response: %v: %w", err, domain.ErrProviderFailure)
	}
	text := g.extractText(out)
	if text == "" {
		return "", fmt.Errorf("gemini returned no text: %w", domain.ErrMalformedOutput)
	}
	return text, nil
}

func (g *GeminiProvider) endpoint() string {
	base := strings.TrimRight(g.baseURL, "/")
	model := url.PathEscape(g.model)
	return fmt.Sprintf("%s/models/%s:generateContent", base, model)
}

func (g *GeminiProvider) extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

func (g *GeminiProvider) emitFallback(reason string, err error) {
	if g.onFallback != nil {
		g.onFallback(reason, err)
	}
}

var _ Provider = (*GeminiProvider)(nil)

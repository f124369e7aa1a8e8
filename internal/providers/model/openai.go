package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"uigen/internal/domain"
	"uigen/internal/validator"
)

type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	// Fallback answers Analyze when the remote call fails. Generate never falls back.
	Fallback   Provider
	OnFallback func(reason string, err error)
	OnWarning  func(reason, detail string)
}

type OpenAIProvider struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
	fallback     Provider
	onFallback   func(reason string, err error)
}

const openAIDefaultTimeout = 60 * time.Second

const defaultOpenAIModel = "gpt-4o-mini"

var openAIModelCanonical = map[string]string{
	"gpt-4o":      "gpt-4o",
	"gpt-4o-mini": "gpt-4o-mini",
	"gpt-4.1":     "gpt-4.1",
}

var openAIModelAliases = map[string]string{
	"gpt4o":                  "gpt-4o",
	"gpt4o-mini":             "gpt-4o-mini",
	"gpt4omini":              "gpt-4o-mini",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt4.1":                 "gpt-4.1",
}

type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *openAIFormat   `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenAIProvider(opts OpenAIOptions) (*OpenAIProvider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	modelInput := strings.TrimSpace(opts.Model)
	normalizedModel, normalizationReason := normalizeOpenAIModel(modelInput)
	if normalizationReason != "" && opts.OnWarning != nil {
		detail := fmt.Sprintf("requested=%s resolved=%s", coalesce(modelInput, defaultOpenAIModel), normalizedModel)
		opts.OnWarning("model_"+normalizationReason, detail)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIProvider{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        normalizedModel,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
		fallback:     opts.Fallback,
		onFallback:   opts.OnFallback,
	}, nil
}

func (o *OpenAIProvider) Name() string { return openAIProviderName }

func (o *OpenAIProvider) Generate(ctx context.Context, req domain.GenerationRequest, category domain.Category) (*domain.GeneratedArtifact, error) {
	text, err := o.complete(ctx, buildGeneratePrompt(req, category, validator.AllowedImports), 0.4)
	if err != nil {
		return nil, err
	}
	return decodeArtifact(text, category)
}

func (o *OpenAIProvider) Analyze(ctx context.Context, prompt string) ([]CategoryCandidate, error) {
	text, err := o.complete(ctx, buildAnalyzePrompt(prompt), 0)
	if err != nil {
		if o.fallback != nil && shouldFallback(err) {
			o.emitFallback("analyze", err)
			return o.fallback.Analyze(ctx, prompt)
		}
		return nil, err
	}
	return decodeCandidates(text)
}

func (o *OpenAIProvider) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	payload := openAIChatRequest{
		Model:       o.model,
		Temperature: temperature,
		ResponseFormat: &openAIFormat{
			Type: "json_object",
		},
		Messages: []openAIMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("openai encode: %v: %w", err, domain.ErrProviderFailure)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("openai build request: %v: %w", err, domain.ErrProviderFailure)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", o.organization)
	}
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", transportError(openAIProviderName, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", statusError(openAIProviderName, resp.StatusCode)
	}
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("openai decode response: %v: %w", err, domain.ErrProviderFailure)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices: %w", domain.ErrMalformedOutput)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai returned empty content: %w", domain.ErrMalformedOutput)
	}
	return text, nil
}

func (o *OpenAIProvider) emitFallback(reason string, err error) {
	if o.onFallback != nil {
		o.onFallback(reason, err)
	}
}

var _ Provider = (*OpenAIProvider)(nil)

func normalizeOpenAIModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultOpenAIModel, ""
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if canonical, ok := openAIModelCanonical[normalized]; ok {
		return canonical, ""
	}
	if alias, ok := openAIModelAliases[normalized]; ok {
		return alias, "alias"
	}
	return defaultOpenAIModel, "defaulted"
}

package model

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"uigen/internal/domain"
)

func openAIBody(t *testing.T, content string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}

func TestOpenAIGenerateSendsJSONRequest(t *testing.T) {
	var sent openAIChatRequest
	p, err := NewOpenAIProvider(OpenAIOptions{
		APIKey:       "sk-test",
		Model:        "GPT4o_mini",
		Organization: "org-1",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get("Authorization") != "Bearer sk-test" {
				t.Errorf("missing bearer token")
			}
			if r.Header.Get("OpenAI-Organization") != "org-1" {
				t.Errorf("missing organization header")
			}
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &sent); err != nil {
				t.Errorf("decode request: %v", err)
			}
			return jsonResponse(http.StatusOK, openAIBody(t, artifactJSON)), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIProvider returned error: %v", err)
	}
	req := domain.GenerationRequest{
		Prompt:  "user table",
		Context: domain.ContextFlags{AccessibilityRequired: true},
		Options: domain.GenerationOptions{IncludeExamples: true},
	}
	a, err := p.Generate(context.Background(), req, domain.CategoryTable)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if a.Name != "UserTable" {
		t.Fatalf("unexpected artifact %+v", a)
	}
	if sent.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q, want alias resolved", sent.Model)
	}
	if sent.ResponseFormat == nil || sent.ResponseFormat.Type != "json_object" {
		t.Fatalf("response format not requested")
	}
	if len(sent.Messages) != 2 || sent.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages %+v", sent.Messages)
	}
}

func TestOpenAIEmptyChoicesIsMalformed(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIOptions{
		APIKey: "sk-test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"choices":[]}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIProvider returned error: %v", err)
	}
	if _, err := p.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"}, ""); !errors.Is(err, domain.ErrMalformedOutput) {
		t.Fatalf("expected malformed output, got %v", err)
	}
}

func TestNormalizeOpenAIModel(t *testing.T) {
	cases := []struct {
		in, model, reason string
	}{
		{"", defaultOpenAIModel, ""},
		{"gpt-4o", "gpt-4o", ""},
		{"gpt4o_mini", "gpt-4o-mini", "alias"},
		{"davinci", defaultOpenAIModel, "defaulted"},
	}
	for _, tc := range cases {
		model, reason := normalizeOpenAIModel(tc.in)
		if model != tc.model || reason != tc.reason {
			t.Fatalf("normalizeOpenAIModel(%q) = %q,%q want %q,%q", tc.in, model, reason, tc.model, tc.reason)
		}
	}
}

func TestOpenAIServerErrorIsNotMaskedByFallback(t *testing.T) {
	called := false
	p, err := NewOpenAIProvider(OpenAIOptions{
		APIKey: "sk-test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusInternalServerError, `{}`), nil
		})},
		Fallback: fakeProvider{generate: func(context.Context, domain.GenerationRequest, domain.Category) (*domain.GeneratedArtifact, error) {
			called = true
			return &domain.GeneratedArtifact{Name: "Card", Code: "x"}, nil
		}},
	})
	if err != nil {
		t.Fatalf("NewOpenAIProvider returned error: %v", err)
	}
	if _, err := p.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"}, domain.CategoryCard); !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
	if called {
		t.Fatal("fallback must not answer generation")
	}
}

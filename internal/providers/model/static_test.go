package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uigen/internal/domain"
	"uigen/internal/templates"
)

func TestKeywordAnalyzer(t *testing.T) {
	cases := map[string]domain.Category{
		"A sortable data grid of invoices": domain.CategoryDataGrid,
		"Signup form with email":           domain.CategoryForm,
		"Confirmation dialog":              domain.CategoryModal,
		"user table with 3 columns":        domain.CategoryTable,
		"Top navigation bar":               domain.CategoryNavbar,
	}
	var a KeywordAnalyzer
	for prompt, want := range cases {
		got, ok := Best(a.Analyze(prompt))
		require.True(t, ok, prompt)
		assert.Equal(t, want, got, prompt)
	}

	assert.Empty(t, a.Analyze("something unrelated"))
	assert.LessOrEqual(t, len(a.Analyze("table form button card modal list")), 3)
}

func TestComponentNameFromPrompt(t *testing.T) {
	assert.Equal(t, "UserTable", ComponentNameFromPrompt("a user table with pagination", domain.CategoryTable))
	assert.Equal(t, "InvoiceDataGrid", ComponentNameFromPrompt("invoice grid", domain.CategoryDataGrid))
	assert.Equal(t, "Button", ComponentNameFromPrompt("button", domain.CategoryButton))
}

func TestStaticProviderGenerate(t *testing.T) {
	p := NewStaticProvider(templates.MustEngine())

	a, err := p.Generate(context.Background(), domain.GenerationRequest{Prompt: "a pricing card"}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryCard, a.Category)
	assert.Equal(t, "PricingCard", a.Name)
	assert.Contains(t, a.Code, "export default function PricingCard(")
	assert.Contains(t, a.Tags, "static")

	a, err = p.Generate(context.Background(), domain.GenerationRequest{Prompt: "sales dashboard"}, domain.CategoryDashboard)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryCard, a.Category, "unsupported categories fall back to a card")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Generate(ctx, domain.GenerationRequest{Prompt: "x"}, "")
	assert.Error(t, err)
}

func TestGuardedProviderOpensAfterFailures(t *testing.T) {
	calls := 0
	inner := fakeProvider{
		generate: func(context.Context, domain.GenerationRequest, domain.Category) (*domain.GeneratedArtifact, error) {
			calls++
			return nil, fmt.Errorf("down: %w", domain.ErrProviderFailure)
		},
	}
	g := NewGuardedProvider(inner, BreakerOptions{ConsecutiveFailures: 2})

	for i := 0; i < 2; i++ {
		_, err := g.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"}, "")
		require.ErrorIs(t, err, domain.ErrProviderFailure)
	}
	require.True(t, g.Open())

	_, err := g.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"}, "")
	require.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.Equal(t, 2, calls, "open breaker must not call the provider")
}

func TestGuardedProviderIgnoresMalformedOutput(t *testing.T) {
	inner := fakeProvider{
		generate: func(context.Context, domain.GenerationRequest, domain.Category) (*domain.GeneratedArtifact, error) {
			return nil, fmt.Errorf("bad json: %w", domain.ErrMalformedOutput)
		},
	}
	g := NewGuardedProvider(inner, BreakerOptions{ConsecutiveFailures: 1})
	for i := 0; i < 3; i++ {
		_, err := g.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"}, "")
		assert.True(t, errors.Is(err, domain.ErrMalformedOutput))
	}
	assert.False(t, g.Open())
}

func TestDecodeArtifactCategoryFallback(t *testing.T) {
	a, err := decodeArtifact(`{"name":"X","code":"c","category":"widget"}`, domain.CategoryList)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryList, a.Category)

	a, err = decodeArtifact(`{"name":"X","code":"c"}`, "")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryCustom, a.Category)
}

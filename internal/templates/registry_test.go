package templates

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uigen/internal/domain"
	"uigen/internal/validator"
)

func TestSupportedCategories(t *testing.T) {
	e := MustEngine()
	want := []domain.Category{
		domain.CategoryButton, domain.CategoryCard, domain.CategoryDataGrid, domain.CategoryForm,
		domain.CategoryList, domain.CategoryModal, domain.CategoryNavbar, domain.CategoryTable,
	}
	assert.Equal(t, want, e.ListSupportedCategories())
	assert.True(t, e.Supports(domain.CategoryDataGrid))
	assert.False(t, e.Supports(domain.CategoryDashboard))
}

func TestGenerateUnknownCategory(t *testing.T) {
	_, err := MustEngine().Generate(domain.CategoryCustom, TemplateContext{Name: "X"})
	if !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestEveryTemplateProducesAValidComponent(t *testing.T) {
	e := MustEngine()
	v := validator.New(zerolog.Nop())
	req := domain.GenerationRequest{Prompt: "x", Options: domain.GenerationOptions{IncludeComments: true}}

	for _, category := range e.ListSupportedCategories() {
		t.Run(string(category), func(t *testing.T) {
			ctx := ContextFor(category, "SampleWidget", req, nil)
			code, err := e.Generate(category, ctx)
			require.NoError(t, err)

			assert.Contains(t, code, "export default function SampleWidget(")
			assert.Contains(t, code, "export interface SampleWidgetProps {")
			assert.NotContains(t, code, "{{name}}")

			out := v.Validate(context.Background(), code, category)
			assert.True(t, out.Acceptable(), "findings: %+v\n%s", out.Findings, code)
			for _, f := range out.Findings {
				assert.NotEqual(t, validator.KindStructure, f.Kind, "structure finding %+v", f)
			}
		})
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	e := MustEngine()
	for _, category := range e.ListSupportedCategories() {
		ctx := ContextFor(category, "Widget", domain.GenerationRequest{}, nil)
		first, err := e.Generate(category, ctx)
		require.NoError(t, err)
		second, err := e.Generate(category, ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		again, err := Parse("again", first)
		require.NoError(t, err)
		assert.Equal(t, first, again.Execute(ctx.data()), "re-expanding %s changed it", category)
	}
}

func TestContextForKeepsSafeProposedProps(t *testing.T) {
	proposed := []domain.PropDescriptor{
		{Name: "label", Type: "number"},
		{Name: "size", Type: "'small' | 'large'"},
		{Name: "bad name", Type: "string"},
		{Name: "weird", Type: "string; } evil {"},
	}
	ctx := ContextFor(domain.CategoryButton, "Go", domain.GenerationRequest{}, proposed)

	var names []string
	types := map[string]string{}
	for _, p := range ctx.Props {
		names = append(names, p.Name)
		types[p.Name] = p.Type
	}
	assert.Equal(t, []string{"label", "onClick", "disabled", "variant", "size", "weird"}, names)
	assert.Equal(t, "string", types["label"], "default props win")
	assert.Equal(t, "unknown", types["weird"])

	code, err := MustEngine().Generate(domain.CategoryButton, ctx)
	require.NoError(t, err)
	assert.True(t, strings.Contains(code, "  size?: 'small' | 'large';"))
	assert.True(t, strings.Contains(code, "  label: string;"))
}

func TestArtifact(t *testing.T) {
	a, err := MustEngine().Artifact(domain.CategoryCard, ContextFor(domain.CategoryCard, "ProfileCard", domain.GenerationRequest{}, nil))
	require.NoError(t, err)
	assert.Equal(t, "ProfileCard", a.Name)
	assert.Equal(t, domain.CategoryCard, a.Category)
	assert.Contains(t, a.Tags, "template")
	assert.NotEmpty(t, a.Props)
}

func TestSafeTitle(t *testing.T) {
	assert.Equal(t, "Team members", SafeTitle(" Team members "))
	assert.Equal(t, "", SafeTitle("<script>"))
}

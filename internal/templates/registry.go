package templates

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"uigen/internal/domain"
)

//go:embed tmpl/*.tsx.tmpl
var templateFS embed.FS

// Engine expands category templates. It is read-only after construction.
type Engine struct {
	templates map[domain.Category]*Template
}

// NewEngine parses every embedded template.
func NewEngine() (*Engine, error) {
	entries, err := templateFS.ReadDir("tmpl")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	e := &Engine{templates: make(map[domain.Category]*Template, len(entries))}
	for _, entry := range entries {
		name := entry.Name()
		raw, err := templateFS.ReadFile(path.Join("tmpl", name))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}
		tpl, err := Parse(name, string(raw))
		if err != nil {
			return nil, err
		}
		e.templates[domain.Category(strings.TrimSuffix(name, ".tsx.tmpl"))] = tpl
	}
	return e, nil
}

// MustEngine is NewEngine for callers that cannot recover from a broken build.
func MustEngine() *Engine {
	e, err := NewEngine()
	if err != nil {
		panic(err)
	}
	return e
}

// Generate expands the template for category.
func (e *Engine) Generate(category domain.Category, ctx TemplateContext) (string, error) {
	tpl, ok := e.templates[category]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, category)
	}
	return tpl.Execute(ctx.data()), nil
}

// ListSupportedCategories returns the categories with a template, sorted.
func (e *Engine) ListSupportedCategories() []domain.Category {
	out := make([]domain.Category, 0, len(e.templates))
	for c := range e.templates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Supports reports whether category has a template.
func (e *Engine) Supports(category domain.Category) bool {
	_, ok := e.templates[category]
	return ok
}

// Artifact expands the template for category into a complete artifact.
func (e *Engine) Artifact(category domain.Category, ctx TemplateContext) (*domain.GeneratedArtifact, error) {
	code, err := e.Generate(category, ctx)
	if err != nil {
		return nil, err
	}
	return &domain.GeneratedArtifact{
		Category:    category,
		Name:        ctx.Name,
		Description: fmt.Sprintf("%s %s built from the %s template", splitWords(ctx.Name), category, category),
		Code:        code,
		Props:       ctx.Props,
		Tags:        []string{string(category), "template"},
	}, nil
}

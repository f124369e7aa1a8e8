package model

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"uigen/internal/domain"
	"uigen/internal/templates"
)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "with": true, "and": true, "for": true, "of": true,
	"to": true, "that": true, "my": true, "simple": true, "create": true, "make": true,
	"build": true, "component": true, "please": true, "in": true, "on": true, "some": true,
}

// StaticProvider answers from the template catalog. It is used offline and in development.
type StaticProvider struct {
	engine   *templates.Engine
	analyzer KeywordAnalyzer
}

func NewStaticProvider(engine *templates.Engine) *StaticProvider {
	return &StaticProvider{engine: engine}
}

func (s *StaticProvider) Name() string { return staticProviderName }

func (s *StaticProvider) Generate(ctx context.Context, req domain.GenerationRequest, category domain.Category) (*domain.GeneratedArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportError(staticProviderName, err)
	}
	if category == "" {
		category, _ = Best(s.analyzer.Analyze(req.Prompt))
	}
	if !s.engine.Supports(category) {
		category = domain.CategoryCard
	}
	name := ComponentNameFromPrompt(req.Prompt, category)
	artifact, err := s.engine.Artifact(category, templates.ContextFor(category, name, req, nil))
	if err != nil {
		return nil, err
	}
	artifact.Tags = append(artifact.Tags, staticProviderName)
	return artifact, nil
}

func (s *StaticProvider) Analyze(_ context.Context, prompt string) ([]CategoryCandidate, error) {
	return s.analyzer.Analyze(prompt), nil
}

// ComponentNameFromPrompt derives a PascalCase name from up to two descriptive words that
// precede the category noun in the prompt, followed by the category.
func ComponentNameFromPrompt(prompt string, category domain.Category) string {
	title := cases.Title(language.English)
	keywords := categoryKeywords[category]

	var parts []string
	for _, word := range strings.Fields(normalizeText(prompt)) {
		if len(parts) == 2 {
			break
		}
		if keywords[word] >= 3 {
			break
		}
		if stopWords[word] || !isAlpha(word) {
			continue
		}
		parts = append(parts, title.String(word))
	}
	for _, seg := range strings.Split(string(category), "-") {
		if seg != "" {
			parts = append(parts, title.String(seg))
		}
	}
	if len(parts) == 0 {
		return "Component"
	}
	return strings.Join(parts, "")
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return s != ""
}

var _ Provider = (*StaticProvider)(nil)

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"uigen/internal/domain"
)

// artifactPayload is the JSON shape models are asked to return.
type artifactPayload struct {
	Name        string                  `json:"name"`
	Category    string                  `json:"category"`
	Description string                  `json:"description"`
	Code        string                  `json:"code"`
	Props       []domain.PropDescriptor `json:"props"`
	Examples    []domain.UsageExample   `json:"examples"`
	PreviewHTML string                  `json:"preview_html"`
	Tags        []string                `json:"tags"`
}

type analyzePayload struct {
	Categories []struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	} `json:"categories"`
}

// decodeArtifact parses model text into an artifact. Text that is not JSON and JSON that
// lacks the required fields are both malformed output.
func decodeArtifact(raw string, fallbackCategory domain.Category) (*domain.GeneratedArtifact, error) {
	p, err := parseModelPayload[artifactPayload](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(p.Code) == "" {
		missing = append(missing, "code")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrMalformedOutput, strings.Join(missing, ", "))
	}
	category := domain.ParseCategory(p.Category)
	if category == "" || (category == domain.CategoryCustom && fallbackCategory != "") {
		category = fallbackCategory
	}
	if category == "" {
		category = domain.CategoryCustom
	}
	return &domain.GeneratedArtifact{
		Category:    category,
		Name:        strings.TrimSpace(p.Name),
		Description: strings.TrimSpace(p.Description),
		Code:        trimCodeFence(p.Code),
		Props:       p.Props,
		Examples:    p.Examples,
		PreviewHTML: p.PreviewHTML,
		Tags:        normalizeTags(p.Tags, string(category)),
	}, nil
}

func decodeCandidates(raw string) ([]CategoryCandidate, error) {
	p, err := parseModelPayload[analyzePayload](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}
	out := make([]CategoryCandidate, 0, len(p.Categories))
	for _, c := range p.Categories {
		cat := domain.ParseCategory(c.Category)
		if cat == "" {
			continue
		}
		out = append(out, CategoryCandidate{Category: cat, Confidence: c.Confidence})
	}
	return rankCandidates(out), nil
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "```")
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func normalizeTags(tags []string, fallback string) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	if len(result) == 0 && fallback != "" {
		result = []string{fallback}
	}
	return result
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

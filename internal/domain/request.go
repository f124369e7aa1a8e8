package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxPromptLength bounds the prompt accepted for a generation request, in runes.
const MaxPromptLength = 2000

// Category tags the kind of UI component being generated.
type Category string

const (
	CategoryButton    Category = "button"
	CategoryCard      Category = "card"
	CategoryForm      Category = "form"
	CategoryTable     Category = "table"
	CategoryDataGrid  Category = "data-grid"
	CategoryModal     Category = "modal"
	CategoryNavbar    Category = "navbar"
	CategoryList      Category = "list"
	CategoryDashboard Category = "dashboard"
	CategoryCustom    Category = "custom"
)

var knownCategories = map[Category]struct{}{
	CategoryButton: {}, CategoryCard: {}, CategoryForm: {}, CategoryTable: {},
	CategoryDataGrid: {}, CategoryModal: {}, CategoryNavbar: {}, CategoryList: {},
	CategoryDashboard: {}, CategoryCustom: {},
}

// ParseCategory normalizes a free-form category tag. Unknown values map to CategoryCustom.
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case "":
		return ""
	case "grid", "datagrid":
		return CategoryDataGrid
	case "dialog":
		return CategoryModal
	}
	if _, ok := knownCategories[c]; ok {
		return c
	}
	return CategoryCustom
}

// IsTableLike reports whether the category renders tabular data.
func (c Category) IsTableLike() bool {
	return c == CategoryTable || c == CategoryDataGrid
}

// Theme selects the preview palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Complexity is the ceiling requested for generated code.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// ContextFlags carry the optional generation context.
type ContextFlags struct {
	Theme                 Theme  `json:"theme,omitempty"`
	AccessibilityRequired bool   `json:"accessibility_required,omitempty"`
	Responsive            bool   `json:"responsive,omitempty"`
	Typed                 bool   `json:"typed,omitempty"`
	Locale                string `json:"locale,omitempty"`
}

// GenerationOptions tune the generated output.
type GenerationOptions struct {
	IncludeExamples bool       `json:"include_examples,omitempty"`
	IncludeComments bool       `json:"include_comments,omitempty"`
	Complexity      Complexity `json:"complexity,omitempty"`
}

// GenerationRequest is the immutable input of a generation job.
type GenerationRequest struct {
	Prompt   string            `json:"prompt"`
	Category Category          `json:"category,omitempty"`
	Context  ContextFlags      `json:"context"`
	Options  GenerationOptions `json:"options"`
}

// Normalize trims the prompt and fills defaults in place.
func (r *GenerationRequest) Normalize() {
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.Category = ParseCategory(string(r.Category))
	if r.Context.Theme != ThemeDark {
		r.Context.Theme = ThemeLight
	}
	switch r.Options.Complexity {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
	default:
		r.Options.Complexity = ComplexityModerate
	}
}

// Validate rejects requests that must never reach a provider.
func (r GenerationRequest) Validate(maxLen int) error {
	if maxLen <= 0 {
		maxLen = MaxPromptLength
	}
	prompt := strings.TrimSpace(r.Prompt)
	if prompt == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidPrompt)
	}
	if n := utf8.RuneCountInString(prompt); n > maxLen {
		return fmt.Errorf("%w: prompt is %d characters, limit is %d", ErrInvalidPrompt, n, maxLen)
	}
	return nil
}

// EstimateDuration is a coarse heuristic for how long a request takes. It is not an SLA.
func (r GenerationRequest) EstimateDuration() time.Duration {
	d := 8 * time.Second
	d += time.Duration(utf8.RuneCountInString(r.Prompt)/100) * time.Second
	if r.Options.IncludeExamples {
		d += 3 * time.Second
	}
	if r.Options.IncludeComments {
		d += time.Second
	}
	switch r.Options.Complexity {
	case ComplexityComplex:
		d += 10 * time.Second
	case ComplexitySimple:
		d -= 3 * time.Second
	}
	if r.Context.AccessibilityRequired {
		d += 2 * time.Second
	}
	return d
}

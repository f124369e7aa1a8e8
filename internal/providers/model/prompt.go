package model

import (
	"fmt"
	"strings"

	"uigen/internal/domain"
)

const systemInstruction = "You are a senior React engineer who writes small, self-contained TypeScript components. You only respond with valid JSON."

const artifactSchema = `{"name":string,"category":string,"description":string,"code":string,"props":[{"name":string,"type":string,"required":boolean,"default":string,"description":string}],"examples":[{"title":string,"code":string}],"preview_html":string,"tags":string[]}`

func buildGeneratePrompt(req domain.GenerationRequest, category domain.Category, allowedImports []string) string {
	sb := &strings.Builder{}
	sb.WriteString("Write one React function component in TSX. Respond strictly with JSON matching this schema: ")
	sb.WriteString(artifactSchema)
	sb.WriteString(". Rules: import React from 'react'; export exactly one PascalCase component as the default export; ")
	sb.WriteString("declare an interface named <ComponentName>Props; ")
	fmt.Fprintf(sb, "only import from %s or their sub-paths; ", strings.Join(quoteAll(allowedImports), ", "))
	sb.WriteString("never touch window, document, timers, storage or the network; never use eval or inline HTML handlers. ")
	if category != "" {
		fmt.Fprintf(sb, "Component category: %s. ", category)
	}
	fmt.Fprintf(sb, "Theme: %s. Complexity ceiling: %s. ", coalesce(string(req.Context.Theme), string(domain.ThemeLight)), coalesce(string(req.Options.Complexity), string(domain.ComplexityModerate)))
	if req.Context.AccessibilityRequired {
		sb.WriteString("Every interactive element must have an accessible name. ")
	}
	if req.Context.Responsive {
		sb.WriteString("Layout must adapt to small screens. ")
	}
	if req.Context.Typed {
		sb.WriteString("Type every prop precisely; avoid any. ")
	}
	if req.Options.IncludeExamples {
		sb.WriteString("Include two usage examples. ")
	} else {
		sb.WriteString("Leave examples empty. ")
	}
	if req.Options.IncludeComments {
		sb.WriteString("Add brief comments to non-obvious logic. ")
	}
	if req.Context.Locale != "" {
		fmt.Fprintf(sb, "Write visible copy in locale '%s'. ", req.Context.Locale)
	}
	sb.WriteString("preview_html may hold a standalone HTML document that renders the component with UMD builds, or be empty. ")
	fmt.Fprintf(sb, "Request: %q", req.Prompt)
	return sb.String()
}

func buildAnalyzePrompt(prompt string) string {
	cats := make([]string, 0, 10)
	for _, c := range []domain.Category{
		domain.CategoryButton, domain.CategoryCard, domain.CategoryForm, domain.CategoryTable,
		domain.CategoryDataGrid, domain.CategoryModal, domain.CategoryNavbar, domain.CategoryList,
		domain.CategoryDashboard, domain.CategoryCustom,
	} {
		cats = append(cats, string(c))
	}
	return fmt.Sprintf(`Classify the UI component request into up to three of these categories: %s. Respond strictly as JSON: {"categories":[{"category":string,"confidence":number}]}, most likely first. Request: %q`,
		strings.Join(cats, ", "), prompt)
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = "'" + v + "'"
	}
	return out
}

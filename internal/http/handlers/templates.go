package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"uigen/internal/domain"
	"uigen/internal/generation"
	"uigen/internal/templates"
)

type templateInfo struct {
	Category domain.Category         `json:"category"`
	Props    []domain.PropDescriptor `json:"props"`
}

// ListTemplates lists the categories that have a fallback template.
func (a *App) ListTemplates(w http.ResponseWriter, r *http.Request) {
	cats := a.Templates.ListSupportedCategories()
	items := make([]templateInfo, 0, len(cats))
	for _, c := range cats {
		items = append(items, templateInfo{Category: c, Props: templates.DefaultProps(c)})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type renderTemplateRequest struct {
	Name  string                  `json:"name"`
	Props []domain.PropDescriptor `json:"props"`
	Theme string                  `json:"theme"`
}

// RenderTemplate expands a category template without creating a job.
func (a *App) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	var body renderTemplateRequest
	if !a.decode(w, r, &body) {
		return
	}
	category := domain.ParseCategory(chi.URLParam(r, "category"))
	if !a.Templates.Supports(category) {
		a.fail(w, r, domain.ErrTemplateNotFound)
		return
	}
	name := body.Name
	if name == "" {
		name = string(category)
	}
	req := domain.GenerationRequest{Context: domain.ContextFlags{Theme: domain.Theme(body.Theme)}}
	artifact, err := a.Templates.Artifact(category, templates.ContextFor(category, generation.PascalName(name), req, body.Props))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, artifact)
}

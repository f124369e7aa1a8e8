package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"uigen/internal/domain"
	"uigen/internal/sandbox"
	"uigen/pkg/zip"
)

const maxListLimit = 100

type componentList struct {
	Items []domain.Component `json:"items"`
}

// ListComponents lists the catalog, newest first. ?mine=true restricts it to the caller.
func (a *App) ListComponents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ComponentFilter{Category: domain.ParseCategory(q.Get("category")), Limit: 20}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		filter.Limit = min(n, maxListLimit)
	}
	if mine, _ := strconv.ParseBool(q.Get("mine")); mine {
		user := a.currentUserID(r)
		if user == "" {
			a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
			return
		}
		filter.OwnerID = user
	}
	items, err := a.Components.List(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Component{}
	}
	a.json(w, http.StatusOK, componentList{Items: items})
}

func (a *App) GetComponent(w http.ResponseWriter, r *http.Request) {
	c, err := a.Components.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, c)
}

// ComponentBundle downloads a component as a zip of its source, props and examples.
func (a *App) ComponentBundle(w http.ResponseWriter, r *http.Request) {
	c, err := a.Components.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.scrubPreviewDocument(r.Context(), c)
	archive, err := zip.ArchiveAssets(bundleAssets(c))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.zip", c.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func bundleAssets(c *domain.Component) []zip.Asset {
	props, _ := json.MarshalIndent(c.Props, "", "  ")
	if c.Props == nil {
		props = []byte("[]")
	}
	assets := []zip.Asset{
		{Filename: c.Name + ".tsx", MIME: "text/tsx", Data: []byte(c.Code), Modified: c.UpdatedAt},
		{Filename: "props.json", MIME: "application/json", Data: props, Modified: c.UpdatedAt},
	}
	if len(c.Examples) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s examples\n", c.Name)
		for _, ex := range c.Examples {
			fmt.Fprintf(&b, "\n## %s\n\n```tsx\n%s\n```\n", ex.Title, strings.TrimSpace(ex.Code))
		}
		assets = append(assets, zip.Asset{Filename: "EXAMPLES.md", MIME: "text/markdown", Data: []byte(b.String()), Modified: c.UpdatedAt})
	}
	if c.PreviewHTML != "" {
		assets = append(assets, zip.Asset{Filename: "preview.html", MIME: "text/html", Data: []byte(c.PreviewHTML), Modified: c.UpdatedAt})
	}
	return assets
}

type previewRequest struct {
	Theme string `json:"theme"`
}

// PreviewComponent renders a stored component into a fresh sandboxed preview. The
// previous preview of the same component is released.
func (a *App) PreviewComponent(w http.ResponseWriter, r *http.Request) {
	var body previewRequest
	if !a.decode(w, r, &body) {
		return
	}
	c, err := a.Components.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.scrubPreviewDocument(r.Context(), c)
	p, err := a.Previews.Render(r.Context(), sandbox.InputFor(c, domain.Theme(body.Theme)))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, p)
}

// scrubPreviewDocument drops a stored preview document that no longer passes
// validation, e.g. one saved before a check was added, and persists the change so it
// is neither rendered nor bundled again.
func (a *App) scrubPreviewDocument(ctx context.Context, c *domain.Component) {
	if c.PreviewHTML == "" || a.Validator == nil {
		return
	}
	verdict := a.Validator.ValidateDocument(ctx, c.PreviewHTML)
	if verdict.Valid {
		return
	}
	c.PreviewHTML = ""
	if err := a.Components.Update(ctx, c); err != nil {
		a.Logger.Warn().Err(err).Str("component_id", c.ID).Msg("failed to drop unsafe preview document")
		return
	}
	a.Logger.Info().Str("component_id", c.ID).Int("errors", len(verdict.Errors())).Msg("dropped unsafe preview document")
}

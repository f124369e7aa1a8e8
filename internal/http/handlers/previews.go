package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"uigen/internal/domain"
	"uigen/internal/sandbox"
)

type renderPreviewRequest struct {
	Key         string                  `json:"key"`
	Name        string                  `json:"name"`
	Category    string                  `json:"category"`
	Code        string                  `json:"code"`
	PreviewHTML string                  `json:"preview_html"`
	Props       []domain.PropDescriptor `json:"props"`
	Theme       string                  `json:"theme"`
}

// RenderPreview previews unsaved code. The code must pass validation first.
func (a *App) RenderPreview(w http.ResponseWriter, r *http.Request) {
	var body renderPreviewRequest
	if !a.decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Code) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "code is required")
		return
	}
	key := body.Key
	if user := a.currentUserID(r); user != "" && key != "" {
		key = user + "/" + key
	}
	p, err := a.Previews.Render(r.Context(), sandbox.Input{
		Key:         key,
		Name:        body.Name,
		Category:    domain.ParseCategory(body.Category),
		Code:        body.Code,
		PreviewHTML: body.PreviewHTML,
		Props:       body.Props,
		Theme:       domain.Theme(body.Theme),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, p)
}

// PreviewDocument serves the isolated document. The CSP sandbox header omits
// allow-same-origin, so the document gets an opaque origin even when opened directly.
func (a *App) PreviewDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := a.Previews.Document(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", sandbox.HeaderPolicy)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// PreviewHost serves the page that embeds a preview and relays its messages.
func (a *App) PreviewHost(w http.ResponseWriter, r *http.Request) {
	page, err := a.Previews.HostFor(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

func (a *App) ReleasePreview(w http.ResponseWriter, r *http.Request) {
	if err := a.Previews.Release(r.Context(), chi.URLParam(r, "handle")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

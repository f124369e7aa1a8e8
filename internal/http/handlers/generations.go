package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"uigen/internal/domain"
	"uigen/internal/middleware"
)

type generationRequest struct {
	Prompt   string                   `json:"prompt"`
	Category string                   `json:"category"`
	Context  domain.ContextFlags      `json:"context"`
	Options  domain.GenerationOptions `json:"options"`
}

// CreateGeneration accepts a prompt and returns the job id right away.
func (a *App) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	var body generationRequest
	if !a.decode(w, r, &body) {
		return
	}
	req := domain.GenerationRequest{
		Prompt:   body.Prompt,
		Category: domain.Category(body.Category),
		Context:  body.Context,
		Options:  body.Options,
	}
	if req.Context.Locale == "" {
		req.Context.Locale = middleware.LocaleFromContext(r.Context())
	}
	res, err := a.Generation.CreateJob(r.Context(), a.currentUserID(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/generations/"+res.JobID)
	a.json(w, http.StatusAccepted, res)
}

// GenerationStatus reports progress and, once available, the artifact.
func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	view, err := a.Generation.Status(r.Context(), chi.URLParam(r, "job_id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, view)
}

// RetryGeneration sends a FAILED or TIMEOUT job back to the queue.
func (a *App) RetryGeneration(w http.ResponseWriter, r *http.Request) {
	view, err := a.Generation.Retry(r.Context(), chi.URLParam(r, "job_id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, view)
}

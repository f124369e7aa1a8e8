package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"uigen/internal/domain"
	"uigen/internal/generation"
	"uigen/internal/metrics"
	"uigen/internal/middleware"
	"uigen/internal/sandbox"
	"uigen/internal/templates"
	"uigen/internal/validator"
)

const maxBodyBytes = 1 << 20

// App holds the collaborators every handler needs.
type App struct {
	Logger     zerolog.Logger
	Generation *generation.Service
	Components domain.ComponentRepository
	Validator  *validator.Validator
	Templates  *templates.Engine
	Previews   *sandbox.Renderer
	Metrics    *metrics.Registry
	// Ping checks the database; nil when running in memory.
	Ping func(ctx context.Context) error
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// fail maps domain errors onto HTTP responses. Unknown errors are logged and hidden.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPrompt):
		a.error(w, http.StatusBadRequest, "invalid_prompt", err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, sandbox.ErrPreviewNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrTemplateNotFound):
		a.error(w, http.StatusNotFound, "template_not_found", err.Error())
	case errors.Is(err, domain.ErrRetryExhausted):
		a.error(w, http.StatusConflict, "retry_exhausted", err.Error())
	case errors.Is(err, domain.ErrIllegalTransition):
		a.error(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, sandbox.ErrUnsafeCode):
		a.error(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	default:
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// decode reads a JSON body of bounded size. An empty body leaves v untouched.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

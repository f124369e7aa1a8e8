package handlers

import (
	"net/http"
	"strings"

	"uigen/internal/domain"
)

type validateRequest struct {
	Code     string `json:"code"`
	Category string `json:"category"`
}

// Validate runs the full validator over submitted code. An invalid verdict is still a
// 200: the outcome is the result.
func (a *App) Validate(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if !a.decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Code) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "code is required")
		return
	}
	a.json(w, http.StatusOK, a.Validator.Validate(r.Context(), body.Code, domain.ParseCategory(body.Category)))
}

package handlers

import (
	"context"
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "storage": "memory"}
	if a.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Ping(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("health: database ping failed")
			a.json(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "storage": "postgres"})
			return
		}
		status["storage"] = "postgres"
	}
	a.json(w, http.StatusOK, status)
}

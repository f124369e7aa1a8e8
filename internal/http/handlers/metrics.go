package handlers

import (
	"net/http"

	"uigen/internal/domain"
	"uigen/internal/metrics"
)

type metricsSummary struct {
	JobsCreated       float64            `json:"jobs_created"`
	JobsActive        float64            `json:"jobs_active"`
	JobsByStatus      map[string]float64 `json:"jobs_by_status"`
	Retries           float64            `json:"retries"`
	TemplateFallbacks float64            `json:"template_fallbacks"`
	Points            []metrics.Point    `json:"points"`
}

// MetricsSummary reports the generation counters collected since start.
func (a *App) MetricsSummary(w http.ResponseWriter, r *http.Request) {
	if a.Metrics == nil {
		a.error(w, http.StatusNotFound, "not_found", "metrics disabled")
		return
	}
	points, err := a.Metrics.Snapshot(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	byStatus := map[string]float64{}
	for _, s := range []domain.JobStatus{
		domain.JobStatusSuccess, domain.JobStatusPartial, domain.JobStatusFailed,
		domain.JobStatusTimeout, domain.JobStatusRateLimited,
	} {
		byStatus[string(s)] = metrics.Total(points, metrics.JobsFinished, map[string]string{"status": string(s)})
	}
	if points == nil {
		points = []metrics.Point{}
	}
	a.json(w, http.StatusOK, metricsSummary{
		JobsCreated:       metrics.Total(points, metrics.JobsCreated, nil),
		JobsActive:        metrics.Total(points, metrics.JobsActive, nil),
		JobsByStatus:      byStatus,
		Retries:           metrics.Total(points, metrics.JobRetries, nil),
		TemplateFallbacks: metrics.Total(points, metrics.TemplateFallbacks, nil),
		Points:            points,
	})
}

package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"uigen/internal/domain"
)

const meterName = "uigen/generation"

// Instrument names.
const (
	JobsCreated        = "uigen.jobs.created"
	JobsFinished       = "uigen.jobs.finished"
	JobRetries         = "uigen.jobs.retries"
	TemplateFallbacks  = "uigen.templates.fallbacks"
	ValidationFindings = "uigen.validation.findings"
	JobDuration        = "uigen.job.duration"
	JobsActive         = "uigen.jobs.active"
)

// JobMetrics records generation job lifecycle metrics.
// A nil *JobMetrics is valid and records nothing.
type JobMetrics struct {
	jobsCreatedCounter   metric.Int64Counter
	jobsFinishedCounter  metric.Int64Counter
	jobRetriesCounter    metric.Int64Counter
	templateFallbacks    metric.Int64Counter
	validationFindings   metric.Int64Counter
	jobDurationHistogram metric.Float64Histogram
	jobsActiveGauge      metric.Int64UpDownCounter
}

// NewJobMetrics creates a collector on the global meter provider.
func NewJobMetrics() (*JobMetrics, error) {
	return NewJobMetricsWithMeter(otel.Meter(meterName))
}

// NewJobMetricsWithMeter creates a collector on the given meter.
func NewJobMetricsWithMeter(meter metric.Meter) (*JobMetrics, error) {
	created, err := meter.Int64Counter(
		JobsCreated,
		metric.WithDescription("Total number of generation jobs created"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	finished, err := meter.Int64Counter(
		JobsFinished,
		metric.WithDescription("Generation jobs that reached a terminal status"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter(
		JobRetries,
		metric.WithDescription("Jobs sent back to PENDING after a failure"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		TemplateFallbacks,
		metric.WithDescription("Model outputs replaced by a category template"),
		metric.WithUnit("{component}"),
	)
	if err != nil {
		return nil, err
	}

	findings, err := meter.Int64Counter(
		ValidationFindings,
		metric.WithDescription("Validator findings by kind and severity"),
		metric.WithUnit("{finding}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		JobDuration,
		metric.WithDescription("Duration of job processing in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		JobsActive,
		metric.WithDescription("Number of jobs currently processing"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	return &JobMetrics{
		jobsCreatedCounter:   created,
		jobsFinishedCounter:  finished,
		jobRetriesCounter:    retries,
		templateFallbacks:    fallbacks,
		validationFindings:   findings,
		jobDurationHistogram: duration,
		jobsActiveGauge:      active,
	}, nil
}

// RecordJobCreated records a newly accepted request.
func (jm *JobMetrics) RecordJobCreated(ctx context.Context, category domain.Category) {
	if jm == nil {
		return
	}
	jm.jobsCreatedCounter.Add(ctx, 1, metric.WithAttributes(categoryAttr(category)))
}

// RecordJobStarted marks a job as in flight.
func (jm *JobMetrics) RecordJobStarted(ctx context.Context) {
	if jm == nil {
		return
	}
	jm.jobsActiveGauge.Add(ctx, 1)
}

// RecordJobFinished records the terminal status of one processing attempt.
func (jm *JobMetrics) RecordJobFinished(ctx context.Context, status domain.JobStatus, category domain.Category, d time.Duration) {
	if jm == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("status", string(status)),
		categoryAttr(category),
	)
	jm.jobsFinishedCounter.Add(ctx, 1, attrs)
	jm.jobDurationHistogram.Record(ctx, d.Seconds(), attrs)
	jm.jobsActiveGauge.Add(ctx, -1)
}

// RecordRetry records an automatic or manual retry.
func (jm *JobMetrics) RecordRetry(ctx context.Context, attempt int) {
	if jm == nil {
		return
	}
	jm.jobRetriesCounter.Add(ctx, 1, metric.WithAttributes(attribute.Int("attempt", attempt)))
}

// RecordTemplateFallback records a model artifact replaced by a template.
func (jm *JobMetrics) RecordTemplateFallback(ctx context.Context, category domain.Category) {
	if jm == nil {
		return
	}
	jm.templateFallbacks.Add(ctx, 1, metric.WithAttributes(categoryAttr(category)))
}

// RecordFinding counts one validator finding.
func (jm *JobMetrics) RecordFinding(ctx context.Context, kind, severity string) {
	if jm == nil {
		return
	}
	jm.validationFindings.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("severity", severity),
	))
}

func categoryAttr(c domain.Category) attribute.KeyValue {
	if c == "" {
		c = "unknown"
	}
	return attribute.String("category", string(c))
}

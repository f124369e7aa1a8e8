// Package generation orchestrates generation jobs: it accepts requests, drives the
// provider, validator and template fallback, and stores the resulting components.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"uigen/internal/domain"
	"uigen/internal/metrics"
	"uigen/internal/providers/model"
	"uigen/internal/templates"
	"uigen/internal/validator"
)

const (
	defaultProviderTimeout = 60 * time.Second
	defaultAnalyzeTimeout  = 10 * time.Second
)

// Queue accepts job ids for asynchronous processing.
type Queue interface {
	Enqueue(ctx context.Context, jobID string) error
}

// Options tune orchestration policy.
type Options struct {
	MaxPromptLength int
	ProviderTimeout time.Duration
	AnalyzeTimeout  time.Duration
	MaxNameProbes   int
}

// Deps are the collaborators of a Service.
type Deps struct {
	Jobs       domain.JobRepository
	Components domain.ComponentRepository
	Provider   model.Provider
	Validator  *validator.Validator
	Templates  *templates.Engine
	Metrics    *metrics.JobMetrics
	Logger     zerolog.Logger
}

// Service is the generation job orchestrator.
type Service struct {
	jobs       domain.JobRepository
	components domain.ComponentRepository
	provider   model.Provider
	analyzer   model.KeywordAnalyzer
	validator  *validator.Validator
	templates  *templates.Engine
	namer      *Namer
	metrics    *metrics.JobMetrics
	log        zerolog.Logger
	tracer     trace.Tracer
	opts       Options
	queue      Queue
	newID      func() string
}

func NewService(deps Deps, opts Options) *Service {
	if opts.MaxPromptLength <= 0 {
		opts.MaxPromptLength = domain.MaxPromptLength
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaultProviderTimeout
	}
	if opts.AnalyzeTimeout <= 0 {
		opts.AnalyzeTimeout = defaultAnalyzeTimeout
	}
	return &Service{
		jobs:       deps.Jobs,
		components: deps.Components,
		provider:   deps.Provider,
		validator:  deps.Validator,
		templates:  deps.Templates,
		namer:      NewNamer(deps.Components, opts.MaxNameProbes),
		metrics:    deps.Metrics,
		log:        deps.Logger.With().Str("component", "generation").Logger(),
		tracer:     otel.Tracer("uigen/generation"),
		opts:       opts,
		newID:      uuid.NewString,
	}
}

// UseQueue sets where new and retried jobs are dispatched. Without a queue jobs stay
// PENDING until a worker claims them.
func (s *Service) UseQueue(q Queue) {
	s.queue = q
}

// CreateResult is returned when a job is accepted.
type CreateResult struct {
	JobID               string           `json:"job_id"`
	Status              domain.JobStatus `json:"status"`
	EstimatedCompletion time.Time        `json:"estimated_completion"`
}

// StatusView is the caller-facing job status. Artifact is set only for SUCCESS and PARTIAL.
type StatusView struct {
	JobID       string            `json:"job_id"`
	Status      domain.JobStatus  `json:"status"`
	Progress    int               `json:"progress"`
	RetryCount  int               `json:"retry_count"`
	Error       *domain.JobError  `json:"error,omitempty"`
	Artifact    *domain.Component `json:"artifact,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// CreateJob validates and persists a request, then dispatches it. Invalid prompts are
// rejected here and never reach a provider.
func (s *Service) CreateJob(ctx context.Context, requesterID string, req domain.GenerationRequest) (CreateResult, error) {
	req.Normalize()
	if err := req.Validate(s.opts.MaxPromptLength); err != nil {
		return CreateResult{}, err
	}

	job := domain.NewJob(s.newID(), requesterID, req)
	if err := s.jobs.Create(ctx, job); err != nil {
		return CreateResult{}, fmt.Errorf("create job: %w", err)
	}
	s.metrics.RecordJobCreated(ctx, req.Category)
	s.log.Info().
		Str("job_id", job.ID()).
		Str("requester_id", requesterID).
		Str("category", string(req.Category)).
		Msg("generation: job accepted")

	s.enqueue(ctx, job.ID())
	snap := job.Snapshot()
	return CreateResult{
		JobID:               snap.ID,
		Status:              snap.Status,
		EstimatedCompletion: snap.CreatedAt.Add(req.EstimateDuration()),
	}, nil
}

// Status reports a job. Jobs owned by another requester are reported as not found.
func (s *Service) Status(ctx context.Context, jobID, requesterID string) (StatusView, error) {
	job, err := s.load(ctx, jobID, requesterID)
	if err != nil {
		return StatusView{}, err
	}
	return s.view(ctx, job)
}

// Retry sends a FAILED or TIMEOUT job back to PENDING, within the retry budget.
func (s *Service) Retry(ctx context.Context, jobID, requesterID string) (StatusView, error) {
	job, err := s.load(ctx, jobID, requesterID)
	if err != nil {
		return StatusView{}, err
	}
	if err := job.Retry(); err != nil {
		return StatusView{}, err
	}
	if err := s.persist(ctx, job); err != nil {
		return StatusView{}, err
	}
	s.metrics.RecordRetry(ctx, job.RetryCount())
	s.log.Info().Str("job_id", job.ID()).Int("attempt", job.RetryCount()+1).Msg("generation: manual retry")
	s.enqueue(ctx, job.ID())
	return s.view(ctx, job)
}

func (s *Service) load(ctx context.Context, jobID, requesterID string) (*domain.GenerationJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, domain.ErrNotFound
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if requesterID != "" && job.RequesterID() != "" && job.RequesterID() != requesterID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (s *Service) view(ctx context.Context, job *domain.GenerationJob) (StatusView, error) {
	snap := job.Snapshot()
	v := StatusView{
		JobID:       snap.ID,
		Status:      snap.Status,
		Progress:    snap.Progress(),
		RetryCount:  snap.RetryCount,
		Error:       snap.Error,
		CreatedAt:   snap.CreatedAt,
		CompletedAt: snap.CompletedAt,
	}
	if snap.Status.SuccessLike() && snap.Result != nil {
		c, err := s.components.GetByID(ctx, snap.Result.ComponentID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return StatusView{}, fmt.Errorf("load artifact %s: %w", snap.Result.ComponentID, err)
		}
		v.Artifact = c
	}
	return v, nil
}

func (s *Service) enqueue(ctx context.Context, jobID string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, jobID); err != nil {
		s.log.Warn().Err(err).Str("job_id", jobID).Msg("generation: dispatch deferred")
	}
}

// persist writes the job even when the caller's context is already cancelled, so a
// transition is never lost on shutdown.
func (s *Service) persist(ctx context.Context, job *domain.GenerationJob) error {
	if err := s.jobs.Update(context.WithoutCancel(ctx), job); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID()).Str("status", string(job.Status())).Msg("generation: persist failed")
		return fmt.Errorf("persist job %s: %w", job.ID(), err)
	}
	return nil
}

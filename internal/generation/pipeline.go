package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"uigen/internal/domain"
	"uigen/internal/providers/model"
	"uigen/internal/templates"
	"uigen/internal/validator"
)

// Metadata keys written on jobs.
const (
	MetaAnalyzedCategory = "analyzed_category"
	MetaAnalysisSource   = "analysis_source"
	MetaGeneratedBy      = "generated_by"
)

// Process runs one attempt of a job: PENDING to a terminal state, or back to PENDING
// when a retryable failure leaves budget. It returns an error only when the job could
// not be started.
func (s *Service) Process(ctx context.Context, jobID string) error {
	ctx, span := s.tracer.Start(ctx, "generation.process", trace.WithAttributes(attribute.String("job.id", jobID)))
	defer span.End()

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if err := job.Start(); err != nil {
		return err
	}
	if err := s.jobs.MarkStarted(context.WithoutCancel(ctx), job); err != nil {
		if errors.Is(err, domain.ErrJobTaken) {
			s.log.Debug().Str("job_id", jobID).Msg("generation: job already started elsewhere")
			return nil
		}
		return fmt.Errorf("start job %s: %w", jobID, err)
	}

	log := s.log.With().Str("job_id", jobID).Int("attempt", job.RetryCount()+1).Logger()
	log.Info().Msg("generation: job started")
	s.metrics.RecordJobStarted(ctx)
	started := time.Now()

	category := s.run(ctx, job, log)

	status := job.Status()
	s.metrics.RecordJobFinished(ctx, status, category, time.Since(started))
	span.SetAttributes(attribute.String("job.status", string(status)), attribute.String("job.category", string(category)))
	ev := log.Info()
	if !status.SuccessLike() {
		ev = log.Warn()
		if je := job.Snapshot().Error; je != nil {
			span.SetStatus(codes.Error, je.Message)
			ev = ev.Str("error_kind", string(je.Kind)).Str("error", je.Message)
		}
	}
	ev.Str("status", string(status)).Dur("took", time.Since(started)).Msg("generation: attempt finished")
	return nil
}

// run drives one attempt and always leaves the job out of PROCESSING.
func (s *Service) run(ctx context.Context, job *domain.GenerationJob, log zerolog.Logger) (category domain.Category) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("generation: pipeline panicked")
			s.failAttempt(ctx, job, log, fmt.Errorf("%w: pipeline panicked", domain.ErrProviderFailure))
		}
	}()

	req := job.Request()
	category = s.resolveCategory(ctx, job, req, log)

	genCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	artifact, err := s.provider.Generate(genCtx, req, category)
	deadline := errors.Is(genCtx.Err(), context.DeadlineExceeded)
	cancel()
	if err != nil {
		if deadline && ctx.Err() == nil && !errors.Is(err, domain.ErrProviderTimeout) {
			err = fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
		}
		s.providerFailed(ctx, job, log, err)
		return category
	}
	if artifact == nil || strings.TrimSpace(artifact.Code) == "" {
		s.failAttempt(ctx, job, log, fmt.Errorf("%w: provider returned no code", domain.ErrMalformedOutput))
		return category
	}
	if artifact.Category == "" {
		artifact.Category = category
		if artifact.Category == "" {
			artifact.Category = domain.CategoryCustom
		}
	}
	category = artifact.Category

	final, source, verdict, jobErr := s.vet(ctx, req, artifact, category)
	if final == nil {
		s.finish(ctx, job, log, job.Fail(jobErr))
		return category
	}
	category = final.Category
	if final.PreviewHTML != "" {
		if doc := s.validator.ValidateDocument(ctx, final.PreviewHTML); !doc.Valid {
			s.recordFindings(ctx, doc)
			log.Warn().Int("errors", len(doc.Errors())).Msg("generation: dropped unsafe preview document")
			final.PreviewHTML = ""
		}
	}

	name := final.Name
	if strings.TrimSpace(name) == "" {
		name = model.ComponentNameFromPrompt(req.Prompt, category)
	}
	comp := domain.NewComponent(s.newID(), name, *final, source)
	comp.JobID = job.ID()
	comp.OwnerID = job.RequesterID()
	comp.Validation = validator.Summary(verdict)
	if err := s.namer.Save(ctx, comp); err != nil {
		s.failAttempt(ctx, job, log, err)
		return category
	}

	job.SetMetadata(MetaGeneratedBy, string(source))
	ref := domain.ArtifactRef{ComponentID: comp.ID, Name: comp.Name}
	if source == domain.SourceTemplate {
		s.finish(ctx, job, log, job.PartialComplete(ref, jobErr))
	} else {
		s.finish(ctx, job, log, job.Complete(ref))
	}
	return category
}

// resolveCategory returns the requested category or, when none was given, the best
// analysis candidate. Analysis problems never abort the job.
func (s *Service) resolveCategory(ctx context.Context, job *domain.GenerationJob, req domain.GenerationRequest, log zerolog.Logger) domain.Category {
	if req.Category != "" {
		job.SetMetadata(MetaAnalysisSource, "requested")
		return req.Category
	}

	actx, cancel := context.WithTimeout(ctx, s.opts.AnalyzeTimeout)
	candidates, err := s.provider.Analyze(actx, req.Prompt)
	cancel()
	source := "provider"
	if err != nil || len(candidates) == 0 {
		if err != nil {
			log.Debug().Err(err).Msg("generation: provider analysis unavailable")
		}
		candidates = s.analyzer.Analyze(req.Prompt)
		source = "keyword"
	}
	best, ok := model.Best(candidates)
	if !ok {
		return ""
	}
	job.SetMetadata(MetaAnalyzedCategory, string(best))
	job.SetMetadata(MetaAnalysisSource, source)
	return best
}

// vet validates the model artifact and substitutes a category template when the
// artifact is unacceptable. A nil artifact means the job must fail with jobErr.
func (s *Service) vet(ctx context.Context, req domain.GenerationRequest, artifact *domain.GeneratedArtifact, category domain.Category) (*domain.GeneratedArtifact, domain.Source, validator.Outcome, *domain.JobError) {
	verdict := s.validator.Validate(ctx, artifact.Code, artifact.Category)
	s.recordFindings(ctx, verdict)
	if verdict.Acceptable() && !structurallyBroken(verdict) {
		return artifact, domain.SourceModel, verdict, nil
	}

	reason := rejection(verdict)
	tmplCategory := s.templateCategory(artifact.Category, category)
	if tmplCategory == "" {
		return nil, "", verdict, &domain.JobError{
			Kind:    domain.ErrorKindValidation,
			Message: fmt.Sprintf("%s; no template for category %q", reason, artifact.Category),
		}
	}

	name := artifact.Name
	if strings.TrimSpace(name) == "" {
		name = model.ComponentNameFromPrompt(req.Prompt, tmplCategory)
	}
	fallback, err := s.templates.Artifact(tmplCategory, templates.ContextFor(tmplCategory, PascalName(name), req, artifact.Props))
	if err != nil {
		return nil, "", verdict, &domain.JobError{Kind: domain.ErrorKindValidation, Message: reason}
	}
	if artifact.Description != "" {
		fallback.Description = artifact.Description
	}
	second := s.validator.Validate(ctx, fallback.Code, tmplCategory)
	if !second.Valid {
		return nil, "", second, &domain.JobError{
			Kind:    domain.ErrorKindValidation,
			Message: reason + "; template fallback was rejected too",
		}
	}
	s.metrics.RecordTemplateFallback(ctx, tmplCategory)
	return fallback, domain.SourceTemplate, second, &domain.JobError{
		Kind:    domain.ErrorKindValidation,
		Message: fmt.Sprintf("%s; replaced with the %s template", reason, tmplCategory),
	}
}

func (s *Service) templateCategory(candidates ...domain.Category) domain.Category {
	for _, c := range candidates {
		if c != "" && s.templates.Supports(c) {
			return c
		}
	}
	return ""
}

// providerFailed routes a provider error. Timeouts and rate limits are terminal for
// the attempt and never retried automatically.
func (s *Service) providerFailed(ctx context.Context, job *domain.GenerationJob, log zerolog.Logger, err error) {
	switch domain.ClassifyError(err) {
	case domain.ErrorKindTimeout:
		s.finish(ctx, job, log, job.Timeout())
	case domain.ErrorKindRateLimit:
		s.finish(ctx, job, log, job.RateLimit())
	default:
		s.failAttempt(ctx, job, log, err)
	}
}

// failAttempt fails the job and, for retryable errors within budget, sends it back to
// PENDING and re-dispatches it.
func (s *Service) failAttempt(ctx context.Context, job *domain.GenerationJob, log zerolog.Logger, err error) {
	jobErr := domain.NewJobError(err)
	if terr := job.Fail(jobErr); terr != nil {
		log.Error().Err(terr).Msg("generation: cannot record failure")
		return
	}
	if s.persist(ctx, job) != nil {
		return
	}
	if !jobErr.Retryable() || !job.CanRetry() {
		return
	}
	if rerr := job.Retry(); rerr != nil {
		log.Error().Err(rerr).Msg("generation: retry rejected")
		return
	}
	if s.persist(ctx, job) != nil {
		return
	}
	s.metrics.RecordRetry(ctx, job.RetryCount())
	log.Info().Err(err).Int("retry_count", job.RetryCount()).Msg("generation: job requeued")
	s.enqueue(ctx, job.ID())
}

func (s *Service) finish(ctx context.Context, job *domain.GenerationJob, log zerolog.Logger, transitionErr error) {
	if transitionErr != nil {
		log.Error().Err(transitionErr).Msg("generation: transition rejected")
		return
	}
	_ = s.persist(ctx, job)
}

func (s *Service) recordFindings(ctx context.Context, o validator.Outcome) {
	for _, f := range o.Findings {
		s.metrics.RecordFinding(ctx, string(f.Kind), string(f.Severity))
	}
}

// structurallyBroken reports artifacts that cannot be mounted as a component at all.
func structurallyBroken(o validator.Outcome) bool {
	for _, f := range o.Findings {
		if f.Kind == validator.KindStructure && (f.Code == "no-component" || f.Code == "missing-default-export") {
			return true
		}
	}
	return false
}

func rejection(o validator.Outcome) string {
	errs := o.Errors()
	if len(errs) == 0 {
		return "generated code has no default-exported component"
	}
	first := errs[0]
	msg := fmt.Sprintf("generated code failed validation: %s (%s)", first.Message, first.Code)
	if len(errs) > 1 {
		msg += fmt.Sprintf(" and %d more", len(errs)-1)
	}
	return msg
}

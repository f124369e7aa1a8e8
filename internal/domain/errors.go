package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidPrompt     = errors.New("invalid prompt")
	ErrIllegalTransition = errors.New("illegal job transition")
	ErrRetryExhausted    = errors.New("retry budget exhausted")
	ErrJobTaken          = errors.New("job already started by another worker")
	ErrDuplicateName     = errors.New("component name already taken")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrProviderFailure   = errors.New("provider failure")
	ErrMalformedOutput   = errors.New("malformed provider output")
	ErrValidationFailed  = errors.New("validation failed")
	ErrProviderTimeout   = errors.New("provider timeout")
	ErrRateLimited       = errors.New("provider rate limited")
)

// ErrorKind is the taxonomy recorded on a failed or degraded job.
type ErrorKind string

const (
	ErrorKindGeneration ErrorKind = "generation"
	ErrorKindParsing    ErrorKind = "parsing"
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindRateLimit  ErrorKind = "rate_limit"
)

// JobError is the error captured on a job. Message is stable and safe to show to callers.
type JobError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *JobError) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Kind) + ": " + e.Message
}

// Retryable reports whether the orchestrator may retry a job that failed with this error.
// Timeouts and rate limits are surfaced to the caller instead.
func (e *JobError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Kind == ErrorKindGeneration || e.Kind == ErrorKindParsing
}

// NewJobError wraps err into a JobError classified with ClassifyError.
func NewJobError(err error) *JobError {
	if err == nil {
		return nil
	}
	var je *JobError
	if errors.As(err, &je) {
		return je
	}
	return &JobError{Kind: ClassifyError(err), Message: err.Error()}
}

// ClassifyError maps wrapped sentinel errors onto the job error taxonomy.
func ClassifyError(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrRateLimited):
		return ErrorKindRateLimit
	case errors.Is(err, ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	case errors.Is(err, ErrMalformedOutput):
		return ErrorKindParsing
	case errors.Is(err, ErrValidationFailed):
		return ErrorKindValidation
	default:
		return ErrorKindGeneration
	}
}

package domain

import (
	"fmt"
	"maps"
	"sync"
	"time"
)

// MaxRetries bounds how many times a job may be sent back to PENDING.
const MaxRetries = 3

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending     JobStatus = "PENDING"
	JobStatusProcessing  JobStatus = "PROCESSING"
	JobStatusSuccess     JobStatus = "SUCCESS"
	JobStatusFailed      JobStatus = "FAILED"
	JobStatusPartial     JobStatus = "PARTIAL"
	JobStatusTimeout     JobStatus = "TIMEOUT"
	JobStatusRateLimited JobStatus = "RATE_LIMITED"
)

// Terminal reports whether no forward transition leaves the status.
// FAILED and TIMEOUT are terminal unless a retry is issued.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing:
		return false
	}
	return true
}

// SuccessLike reports whether the job produced a usable artifact.
func (s JobStatus) SuccessLike() bool {
	return s == JobStatusSuccess || s == JobStatusPartial
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusSuccess, JobStatusFailed,
		JobStatusPartial, JobStatusTimeout, JobStatusRateLimited:
		return true
	}
	return false
}

// GenerationJob tracks one request through the pipeline. State only changes through
// the transition methods, each of which is atomic with respect to the others.
type GenerationJob struct {
	mu sync.Mutex

	id          string
	requesterID string
	request     GenerationRequest
	status      JobStatus
	createdAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time
	retryCount  int
	result      *ArtifactRef
	err         *JobError
	metadata    map[string]string
}

// JobSnapshot is a plain copy of a job's state, used for persistence and responses.
type JobSnapshot struct {
	ID          string            `json:"id"`
	RequesterID string            `json:"requester_id,omitempty"`
	Request     GenerationRequest `json:"request"`
	Status      JobStatus         `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	RetryCount  int               `json:"retry_count"`
	Result      *ArtifactRef      `json:"result,omitempty"`
	Error       *JobError         `json:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Progress maps the status onto a 0-100 scale.
func (s JobSnapshot) Progress() int {
	return progressOf(s.Status)
}

// NewJob creates a PENDING job. The request is copied and never changes afterwards.
func NewJob(id, requesterID string, req GenerationRequest) *GenerationJob {
	return &GenerationJob{
		id:          id,
		requesterID: requesterID,
		request:     req,
		status:      JobStatusPending,
		createdAt:   time.Now().UTC(),
		metadata:    map[string]string{},
	}
}

// RestoreJob rebuilds a job from persisted state. Only repositories should call it.
func RestoreJob(s JobSnapshot) (*GenerationJob, error) {
	if !s.Status.Valid() {
		return nil, fmt.Errorf("restore job %s: unknown status %q", s.ID, s.Status)
	}
	if s.RetryCount < 0 || s.RetryCount > MaxRetries {
		return nil, fmt.Errorf("restore job %s: retry count %d out of range", s.ID, s.RetryCount)
	}
	md := maps.Clone(s.Metadata)
	if md == nil {
		md = map[string]string{}
	}
	return &GenerationJob{
		id:          s.ID,
		requesterID: s.RequesterID,
		request:     s.Request,
		status:      s.Status,
		createdAt:   s.CreatedAt,
		startedAt:   copyTime(s.StartedAt),
		completedAt: copyTime(s.CompletedAt),
		retryCount:  s.RetryCount,
		result:      copyRef(s.Result),
		err:         copyErr(s.Error),
		metadata:    md,
	}, nil
}

func (j *GenerationJob) ID() string                 { return j.id }
func (j *GenerationJob) RequesterID() string        { return j.requesterID }
func (j *GenerationJob) Request() GenerationRequest { return j.request }

// Status returns the current status.
func (j *GenerationJob) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// RetryCount returns how many retries have been issued.
func (j *GenerationJob) RetryCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.retryCount
}

// Progress maps the current status onto a 0-100 scale.
func (j *GenerationJob) Progress() int {
	return progressOf(j.Status())
}

// CanRetry reports whether Retry would succeed right now.
func (j *GenerationJob) CanRetry() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.retryable() == nil
}

// SetMetadata records an informational key. It never affects transitions.
func (j *GenerationJob) SetMetadata(key, value string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.metadata[key] = value
}

// Metadata returns one metadata value.
func (j *GenerationJob) Metadata(key string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	v, ok := j.metadata[key]
	return v, ok
}

// Snapshot copies the job state.
func (j *GenerationJob) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:          j.id,
		RequesterID: j.requesterID,
		Request:     j.request,
		Status:      j.status,
		CreatedAt:   j.createdAt,
		StartedAt:   copyTime(j.startedAt),
		CompletedAt: copyTime(j.completedAt),
		RetryCount:  j.retryCount,
		Result:      copyRef(j.result),
		Error:       copyErr(j.err),
		Metadata:    maps.Clone(j.metadata),
	}
}

// Start moves PENDING to PROCESSING.
func (j *GenerationJob) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.expect("start", JobStatusPending); err != nil {
		return err
	}
	now := time.Now().UTC()
	j.status = JobStatusProcessing
	j.startedAt = &now
	return nil
}

// Complete records the stored artifact and moves PROCESSING to SUCCESS.
func (j *GenerationJob) Complete(ref ArtifactRef) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.expect("complete", JobStatusProcessing); err != nil {
		return err
	}
	j.finish(JobStatusSuccess)
	j.result = &ref
	return nil
}

// Fail records err and moves PROCESSING to FAILED.
func (j *GenerationJob) Fail(err *JobError) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if e := j.expect("fail", JobStatusProcessing); e != nil {
		return e
	}
	j.finish(JobStatusFailed)
	j.err = copyErr(err)
	return nil
}

// PartialComplete records a fallback artifact together with the error that forced it.
func (j *GenerationJob) PartialComplete(ref ArtifactRef, err *JobError) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if e := j.expect("partial complete", JobStatusProcessing); e != nil {
		return e
	}
	j.finish(JobStatusPartial)
	j.result = &ref
	j.err = copyErr(err)
	return nil
}

// Timeout moves PROCESSING to TIMEOUT.
func (j *GenerationJob) Timeout() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.expect("timeout", JobStatusProcessing); err != nil {
		return err
	}
	j.finish(JobStatusTimeout)
	j.err = &JobError{Kind: ErrorKindTimeout, Message: "generation exceeded its deadline"}
	return nil
}

// RateLimit moves any non-terminal job to RATE_LIMITED.
func (j *GenerationJob) RateLimit() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return fmt.Errorf("%w: rate limit from %s", ErrIllegalTransition, j.status)
	}
	j.finish(JobStatusRateLimited)
	j.err = &JobError{Kind: ErrorKindRateLimit, Message: "model provider rate limit reached"}
	return nil
}

// Retry sends a FAILED or TIMEOUT job back to PENDING, clearing every attempt-scoped field.
func (j *GenerationJob) Retry() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.retryable(); err != nil {
		return err
	}
	j.retryCount++
	j.status = JobStatusPending
	j.err = nil
	j.result = nil
	j.startedAt = nil
	j.completedAt = nil
	return nil
}

func (j *GenerationJob) retryable() error {
	if j.status != JobStatusFailed && j.status != JobStatusTimeout {
		return fmt.Errorf("%w: retry from %s", ErrIllegalTransition, j.status)
	}
	if j.retryCount >= MaxRetries {
		return ErrRetryExhausted
	}
	return nil
}

func (j *GenerationJob) expect(op string, want JobStatus) error {
	if j.status != want {
		return fmt.Errorf("%w: %s from %s", ErrIllegalTransition, op, j.status)
	}
	return nil
}

func (j *GenerationJob) finish(s JobStatus) {
	now := time.Now().UTC()
	j.status = s
	j.completedAt = &now
}

func progressOf(s JobStatus) int {
	switch s {
	case JobStatusProcessing:
		return 50
	case JobStatusSuccess, JobStatusPartial:
		return 100
	}
	return 0
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyRef(r *ArtifactRef) *ArtifactRef {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}

func copyErr(e *JobError) *JobError {
	if e == nil {
		return nil
	}
	v := *e
	return &v
}

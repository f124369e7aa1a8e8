package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob() *GenerationJob {
	return NewJob("job-1", "user-1", GenerationRequest{Prompt: "a primary button"})
}

func jobIn(t *testing.T, status JobStatus) *GenerationJob {
	t.Helper()
	j := newTestJob()
	switch status {
	case JobStatusPending:
	case JobStatusProcessing:
		require.NoError(t, j.Start())
	case JobStatusSuccess:
		require.NoError(t, j.Start())
		require.NoError(t, j.Complete(ArtifactRef{ComponentID: "c1", Name: "Button"}))
	case JobStatusFailed:
		require.NoError(t, j.Start())
		require.NoError(t, j.Fail(&JobError{Kind: ErrorKindGeneration, Message: "boom"}))
	case JobStatusPartial:
		require.NoError(t, j.Start())
		require.NoError(t, j.PartialComplete(ArtifactRef{ComponentID: "c1", Name: "Button"}, &JobError{Kind: ErrorKindValidation, Message: "bad"}))
	case JobStatusTimeout:
		require.NoError(t, j.Start())
		require.NoError(t, j.Timeout())
	case JobStatusRateLimited:
		require.NoError(t, j.RateLimit())
	default:
		t.Fatalf("unhandled status %s", status)
	}
	require.Equal(t, status, j.Status())
	return j
}

func TestTransitionTable(t *testing.T) {
	ops := map[string]func(j *GenerationJob) error{
		"start":    func(j *GenerationJob) error { return j.Start() },
		"complete": func(j *GenerationJob) error { return j.Complete(ArtifactRef{ComponentID: "x", Name: "X"}) },
		"fail":     func(j *GenerationJob) error { return j.Fail(&JobError{Kind: ErrorKindGeneration, Message: "m"}) },
		"partial": func(j *GenerationJob) error {
			return j.PartialComplete(ArtifactRef{ComponentID: "x", Name: "X"}, &JobError{Kind: ErrorKindValidation, Message: "m"})
		},
		"timeout":   func(j *GenerationJob) error { return j.Timeout() },
		"ratelimit": func(j *GenerationJob) error { return j.RateLimit() },
		"retry":     func(j *GenerationJob) error { return j.Retry() },
	}

	// legal[from][op] = resulting status
	legal := map[JobStatus]map[string]JobStatus{
		JobStatusPending: {
			"start":     JobStatusProcessing,
			"ratelimit": JobStatusRateLimited,
		},
		JobStatusProcessing: {
			"complete":  JobStatusSuccess,
			"fail":      JobStatusFailed,
			"partial":   JobStatusPartial,
			"timeout":   JobStatusTimeout,
			"ratelimit": JobStatusRateLimited,
		},
		JobStatusFailed:      {"retry": JobStatusPending},
		JobStatusTimeout:     {"retry": JobStatusPending},
		JobStatusSuccess:     {},
		JobStatusPartial:     {},
		JobStatusRateLimited: {},
	}

	for from, allowed := range legal {
		for name, op := range ops {
			t.Run(string(from)+"/"+name, func(t *testing.T) {
				j := jobIn(t, from)
				before := j.Snapshot()
				err := op(j)
				if want, ok := allowed[name]; ok {
					require.NoError(t, err)
					assert.Equal(t, want, j.Status())
					return
				}
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrIllegalTransition), "got %v", err)
				assert.Equal(t, before, j.Snapshot(), "illegal transition must not mutate the job")
			})
		}
	}
}

func TestStartSetsStartedAt(t *testing.T) {
	j := newTestJob()
	require.Nil(t, j.Snapshot().StartedAt)
	require.NoError(t, j.Start())
	s := j.Snapshot()
	require.NotNil(t, s.StartedAt)
	assert.Nil(t, s.CompletedAt)
}

func TestPartialCompleteRecordsBoth(t *testing.T) {
	j := jobIn(t, JobStatusPartial)
	s := j.Snapshot()
	require.NotNil(t, s.Result)
	require.NotNil(t, s.Error)
	assert.Equal(t, "Button", s.Result.Name)
	assert.Equal(t, ErrorKindValidation, s.Error.Kind)
	assert.NotNil(t, s.CompletedAt)
}

func TestRetryResetsAttemptFields(t *testing.T) {
	j := jobIn(t, JobStatusFailed)
	require.NoError(t, j.Retry())

	s := j.Snapshot()
	assert.Equal(t, JobStatusPending, s.Status)
	assert.Equal(t, 1, s.RetryCount)
	assert.Nil(t, s.Error)
	assert.Nil(t, s.Result)
	assert.Nil(t, s.StartedAt)
	assert.Nil(t, s.CompletedAt)
}

func TestRetryExhaustion(t *testing.T) {
	j := newTestJob()
	for i := 0; i < MaxRetries; i++ {
		require.NoError(t, j.Start())
		require.NoError(t, j.Fail(&JobError{Kind: ErrorKindGeneration, Message: "boom"}))
		require.True(t, j.CanRetry())
		require.NoError(t, j.Retry())
	}
	require.NoError(t, j.Start())
	require.NoError(t, j.Fail(&JobError{Kind: ErrorKindGeneration, Message: "boom"}))

	assert.False(t, j.CanRetry())
	err := j.Retry()
	require.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, JobStatusFailed, j.Status())
	assert.Equal(t, MaxRetries, j.RetryCount())
}

func TestProgress(t *testing.T) {
	cases := map[JobStatus]int{
		JobStatusPending:     0,
		JobStatusProcessing:  50,
		JobStatusSuccess:     100,
		JobStatusPartial:     100,
		JobStatusFailed:      0,
		JobStatusTimeout:     0,
		JobStatusRateLimited: 0,
	}
	for status, want := range cases {
		j := jobIn(t, status)
		assert.Equal(t, want, j.Progress(), status)
		assert.Equal(t, want, j.Snapshot().Progress(), status)
	}
}

func TestRestoreJobRoundTrip(t *testing.T) {
	j := jobIn(t, JobStatusSuccess)
	j.SetMetadata("analyzed_category", "button")

	restored, err := RestoreJob(j.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, j.Snapshot(), restored.Snapshot())

	v, ok := restored.Metadata("analyzed_category")
	assert.True(t, ok)
	assert.Equal(t, "button", v)
}

func TestRestoreJobRejectsBadState(t *testing.T) {
	_, err := RestoreJob(JobSnapshot{ID: "x", Status: "DONE"})
	assert.Error(t, err)

	_, err = RestoreJob(JobSnapshot{ID: "x", Status: JobStatusFailed, RetryCount: MaxRetries + 1})
	assert.Error(t, err)
}

func TestSnapshotIsACopy(t *testing.T) {
	j := jobIn(t, JobStatusSuccess)
	s := j.Snapshot()
	s.Result.Name = "Mutated"
	s.Metadata["k"] = "v"

	again := j.Snapshot()
	assert.Equal(t, "Button", again.Result.Name)
	_, ok := again.Metadata["k"]
	assert.False(t, ok)
}

package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"uigen/internal/domain"
	"uigen/internal/infra"
	"uigen/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository on Postgres.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a job repository backed by the given executor.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	s := job.Snapshot()
	cols, err := encodeJob(s)
	if err != nil {
		return fmt.Errorf("create job %s: %w", s.ID, err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertGenerationJob,
		s.ID,
		s.RequesterID,
		string(s.Status),
		cols.request,
		cols.result,
		cols.err,
		cols.metadata,
		s.RetryCount,
		s.CreatedAt,
		s.StartedAt,
		s.CompletedAt,
	)
	return err
}

// Update persists the job's current state.
func (r *JobRepositoryPG) Update(ctx context.Context, job *domain.GenerationJob) error {
	s := job.Snapshot()
	cols, err := encodeJob(s)
	if err != nil {
		return fmt.Errorf("update job %s: %w", s.ID, err)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateGenerationJob,
		s.ID,
		string(s.Status),
		cols.result,
		cols.err,
		cols.metadata,
		s.RetryCount,
		s.StartedAt,
		s.CompletedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkStarted persists the start transition only if the row is still PENDING.
func (r *JobRepositoryPG) MarkStarted(ctx context.Context, job *domain.GenerationJob) error {
	s := job.Snapshot()
	cols, err := encodeJob(s)
	if err != nil {
		return fmt.Errorf("start job %s: %w", s.ID, err)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QStartGenerationJob, s.ID, string(s.Status), cols.metadata, s.StartedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobTaken
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectGenerationJob, jobID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// ClaimPending claims up to limit unclaimed PENDING jobs for this worker.
func (r *JobRepositoryPG) ClaimPending(ctx context.Context, limit int) ([]*domain.GenerationJob, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.sql.Query(ctx, sqlinline.QWorkerClaimJobs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []*domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type jobColumns struct {
	request  []byte
	result   []byte
	err      []byte
	metadata []byte
}

func encodeJob(s domain.JobSnapshot) (jobColumns, error) {
	var cols jobColumns
	var err error
	if cols.request, err = json.Marshal(s.Request); err != nil {
		return cols, err
	}
	if s.Result != nil {
		if cols.result, err = json.Marshal(s.Result); err != nil {
			return cols, err
		}
	}
	if s.Error != nil {
		if cols.err, err = json.Marshal(s.Error); err != nil {
			return cols, err
		}
	}
	md := s.Metadata
	if md == nil {
		md = map[string]string{}
	}
	cols.metadata, err = json.Marshal(md)
	return cols, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.GenerationJob, error) {
	var (
		s        domain.JobSnapshot
		status   string
		cols     jobColumns
		started  *time.Time
		finished *time.Time
	)
	if err := row.Scan(
		&s.ID,
		&s.RequesterID,
		&status,
		&cols.request,
		&cols.result,
		&cols.err,
		&cols.metadata,
		&s.RetryCount,
		&s.CreatedAt,
		&started,
		&finished,
	); err != nil {
		return nil, err
	}
	s.Status = domain.JobStatus(status)
	s.StartedAt = started
	s.CompletedAt = finished
	if err := json.Unmarshal(cols.request, &s.Request); err != nil {
		return nil, fmt.Errorf("decode job %s request: %w", s.ID, err)
	}
	if len(cols.result) > 0 {
		s.Result = &domain.ArtifactRef{}
		if err := json.Unmarshal(cols.result, s.Result); err != nil {
			return nil, fmt.Errorf("decode job %s result: %w", s.ID, err)
		}
	}
	if len(cols.err) > 0 {
		s.Error = &domain.JobError{}
		if err := json.Unmarshal(cols.err, s.Error); err != nil {
			return nil, fmt.Errorf("decode job %s error: %w", s.ID, err)
		}
	}
	if len(cols.metadata) > 0 {
		if err := json.Unmarshal(cols.metadata, &s.Metadata); err != nil {
			return nil, fmt.Errorf("decode job %s metadata: %w", s.ID, err)
		}
	}
	return domain.RestoreJob(s)
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)

// Package memory holds in-process repositories used when no database is configured
// and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"uigen/internal/domain"
)

// JobStore keeps job snapshots in memory. Callers always receive fresh job values.
type JobStore struct {
	mu      sync.Mutex
	jobs    map[string]domain.JobSnapshot
	claimed map[string]bool
}

func NewJobStore() *JobStore {
	return &JobStore{
		jobs:    map[string]domain.JobSnapshot{},
		claimed: map[string]bool{},
	}
}

func (s *JobStore) Create(_ context.Context, job *domain.GenerationJob) error {
	snap := job.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[snap.ID]; ok {
		return fmt.Errorf("job %s already exists", snap.ID)
	}
	s.jobs[snap.ID] = snap
	return nil
}

func (s *JobStore) Update(_ context.Context, job *domain.GenerationJob) error {
	snap := job.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[snap.ID]; !ok {
		return domain.ErrNotFound
	}
	s.jobs[snap.ID] = snap
	if snap.Status == domain.JobStatusPending {
		delete(s.claimed, snap.ID)
	}
	return nil
}

// MarkStarted stores job only when the stored copy is still PENDING.
func (s *JobStore) MarkStarted(_ context.Context, job *domain.GenerationJob) error {
	snap := job.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.jobs[snap.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status != domain.JobStatusPending {
		return domain.ErrJobTaken
	}
	s.jobs[snap.ID] = snap
	s.claimed[snap.ID] = true
	return nil
}

func (s *JobStore) GetByID(_ context.Context, jobID string) (*domain.GenerationJob, error) {
	s.mu.Lock()
	snap, ok := s.jobs[jobID]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return domain.RestoreJob(snap)
}

// ClaimPending hands out the oldest unclaimed PENDING jobs. A job becomes claimable
// again once it is updated back to PENDING.
func (s *JobStore) ClaimPending(_ context.Context, limit int) ([]*domain.GenerationJob, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []domain.JobSnapshot
	for id, snap := range s.jobs {
		if snap.Status == domain.JobStatusPending && !s.claimed[id] {
			pending = append(pending, snap)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}

	out := make([]*domain.GenerationJob, 0, len(pending))
	for _, snap := range pending {
		job, err := domain.RestoreJob(snap)
		if err != nil {
			return nil, err
		}
		s.claimed[snap.ID] = true
		out = append(out, job)
	}
	return out, nil
}

// Snapshots returns every stored job. Intended for tests and diagnostics.
func (s *JobStore) Snapshots() []domain.JobSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.JobSnapshot, 0, len(s.jobs))
	for _, snap := range s.jobs {
		out = append(out, snap)
	}
	return out
}

var _ domain.JobRepository = (*JobStore)(nil)

package domain

import "context"

// JobRepository persists generation jobs. Update is called after every transition.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	Update(ctx context.Context, job *GenerationJob) error
	// MarkStarted stores a job that just moved to PROCESSING, but only while the stored
	// copy is still PENDING. It returns ErrJobTaken when another worker got there first.
	MarkStarted(ctx context.Context, job *GenerationJob) error
	GetByID(ctx context.Context, jobID string) (*GenerationJob, error)
	// ClaimPending returns up to limit PENDING jobs that no other worker holds.
	ClaimPending(ctx context.Context, limit int) ([]*GenerationJob, error)
}

// ComponentRepository is the catalog of stored components.
// Create returns ErrDuplicateName when the name is already taken.
type ComponentRepository interface {
	Create(ctx context.Context, c *Component) error
	FindByName(ctx context.Context, name string) (*Component, error)
	Update(ctx context.Context, c *Component) error
	GetByID(ctx context.Context, id string) (*Component, error)
	List(ctx context.Context, filter ComponentFilter) ([]Component, error)
}

// ComponentFilter narrows catalog listings.
type ComponentFilter struct {
	Category Category
	OwnerID  string
	Limit    int
}

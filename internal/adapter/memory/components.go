package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"uigen/internal/domain"
)

// ComponentStore is an in-memory catalog with a unique name index.
type ComponentStore struct {
	mu     sync.RWMutex
	byID   map[string]domain.Component
	byName map[string]string
}

func NewComponentStore() *ComponentStore {
	return &ComponentStore{
		byID:   map[string]domain.Component{},
		byName: map[string]string{},
	}
}

func (s *ComponentStore) Create(_ context.Context, c *domain.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byName[c.Name]; taken {
		return domain.ErrDuplicateName
	}
	s.byID[c.ID] = clone(*c)
	s.byName[c.Name] = c.ID
	return nil
}

func (s *ComponentStore) FindByName(_ context.Context, name string) (*domain.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := clone(s.byID[id])
	return &c, nil
}

func (s *ComponentStore) Update(_ context.Context, c *domain.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byID[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Name != prev.Name {
		if _, taken := s.byName[c.Name]; taken {
			return domain.ErrDuplicateName
		}
		delete(s.byName, prev.Name)
		s.byName[c.Name] = c.ID
	}
	c.UpdatedAt = time.Now().UTC()
	s.byID[c.ID] = clone(*c)
	return nil
}

func (s *ComponentStore) GetByID(_ context.Context, id string) (*domain.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c = clone(c)
	return &c, nil
}

// List returns the newest components first.
func (s *ComponentStore) List(_ context.Context, f domain.ComponentFilter) ([]domain.Component, error) {
	s.mu.RLock()
	out := make([]domain.Component, 0, len(s.byID))
	for _, c := range s.byID {
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		if f.OwnerID != "" && c.OwnerID != f.OwnerID {
			continue
		}
		out = append(out, clone(c))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func clone(c domain.Component) domain.Component {
	c.Props = slices.Clone(c.Props)
	c.Examples = slices.Clone(c.Examples)
	c.Tags = slices.Clone(c.Tags)
	return c
}

var _ domain.ComponentRepository = (*ComponentStore)(nil)

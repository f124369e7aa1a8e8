package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in process memory. Used when no storage path is set.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (m *MemoryStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.data[clean] = append([]byte(nil), data...)
	m.mu.Unlock()
	return clean, nil
}

func (m *MemoryStore) Read(_ context.Context, key string) ([]byte, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[clean]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	clean, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.data, clean)
	m.mu.Unlock()
	return nil
}

// Len reports how many documents are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

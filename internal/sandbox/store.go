package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"uigen/internal/storage"
)

// DocumentStore holds rendered documents. storage.FileStore and storage.MemoryStore
// satisfy it.
type DocumentStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// handles tracks the live preview handle for every render key. Registering a new
// handle for a key releases the previous one first.
type handles struct {
	mu    sync.Mutex
	store DocumentStore
	byKey map[string]string
	keyOf map[string]string
}

func newHandles(store DocumentStore) *handles {
	return &handles{
		store: store,
		byKey: map[string]string{},
		keyOf: map[string]string{},
	}
}

func documentKey(handle string) string {
	return "previews/" + handle + ".html"
}

func (h *handles) register(ctx context.Context, key, handle string, doc []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.byKey[key]; ok {
		if err := h.store.Delete(ctx, documentKey(prev)); err != nil {
			return fmt.Errorf("release preview %s: %w", prev, err)
		}
		delete(h.keyOf, prev)
		delete(h.byKey, key)
	}
	if _, err := h.store.Write(ctx, documentKey(handle), doc); err != nil {
		return fmt.Errorf("store preview %s: %w", handle, err)
	}
	h.byKey[key] = handle
	h.keyOf[handle] = key
	return nil
}

func (h *handles) document(ctx context.Context, handle string) ([]byte, error) {
	doc, err := h.store.Read(ctx, documentKey(handle))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPreviewNotFound
	}
	return doc, err
}

func (h *handles) release(ctx context.Context, handle string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if key, ok := h.keyOf[handle]; ok {
		delete(h.byKey, key)
		delete(h.keyOf, handle)
	}
	return h.store.Delete(ctx, documentKey(handle))
}

func (h *handles) current(key string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	handle, ok := h.byKey[key]
	return handle, ok
}

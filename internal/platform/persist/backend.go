package persist

import (
	"context"
	"sync"
)

// Backend is the raw key-value storage a Store writes through. Exactly one
// writer per key is assumed; backends do not coordinate concurrent writers.
type Backend interface {
	// Get returns the blob for key, reporting false when no record exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores the blob under key, replacing any previous record.
	Put(ctx context.Context, key string, blob []byte) error
	// Delete removes the record for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// MemoryBackend is an in-memory Backend for development and tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	blob, ok := b.records[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, true, nil
}

func (b *MemoryBackend) Put(_ context.Context, key string, blob []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored := make([]byte, len(blob))
	copy(stored, blob)
	b.records[key] = stored
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.records, key)
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

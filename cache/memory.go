package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend is a mutex-guarded in-process Backend. It backs local
// development without a Redis instance and the test suite; entries expire
// by wall clock exactly as Redis TTLs would.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (mb *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	e, ok := mb.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if mb.now().After(e.expiresAt) {
		delete(mb.entries, key)
		return nil, ErrNotFound
	}
	// Copy so callers cannot mutate the stored value.
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (mb *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	mb.entries[key] = memoryEntry{value: stored, expiresAt: mb.now().Add(ttl)}
	return nil
}

func (mb *MemoryBackend) Delete(_ context.Context, key string) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	delete(mb.entries, key)
	return nil
}

// Len reports the number of live (unexpired) entries.
func (mb *MemoryBackend) Len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	n := 0
	for _, e := range mb.entries {
		if !mb.now().After(e.expiresAt) {
			n++
		}
	}
	return n
}

// Package cache provides the score cache and the read-through gateway that
// wraps score computation with a freshness contract.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/lumora/pulse/internal/domain/types"
)

// Entry is one cached score keyed by subject. Entries are superseded by
// whole-record overwrites, never partially mutated or expired out-of-band.
type Entry struct {
	Key       string
	Result    types.ScoreResult
	UpdatedAt time.Time
}

// Store provides keyed read/write access to cached scores.
type Store interface {
	// Get returns the entry for key. The bool reports whether one exists.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Put upserts the entry, overwriting any existing record for its key.
	Put(ctx context.Context, e Entry) error
}

// InMemoryStore implements Store with a mutex-guarded map.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewInMemoryStore creates an empty in-memory score cache.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]Entry)}
}

// Get returns the entry for key if present.
func (s *InMemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

// Put upserts the entry. The write replaces the whole record, so no
// finer-grained locking is needed by callers.
func (s *InMemoryStore) Put(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Key] = e
	return nil
}

// Size returns the number of cached entries.
func (s *InMemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

package dropdown

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	values    []string
	expiresAt time.Time
}

// MemoryStore is the in-process store. Expired entries are treated as misses
// and reclaimed by Sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[Key]memoryEntry),
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Get(_ context.Context, key Key) ([]string, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	out := make([]string, len(e.values))
	copy(out, e.values)
	return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key Key, values []string, ttl time.Duration) error {
	stored := make([]string, len(values))
	copy(stored, values)
	s.mu.Lock()
	s.entries[key] = memoryEntry{values: stored, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...Key) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	s.mu.Unlock()
	return nil
}

// Sweep removes expired entries and reports how many were dropped.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

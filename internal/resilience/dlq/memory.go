package dlq

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/provenly/resilience/internal/core/domain"
)

// MemoryStore is the default in-memory dead-letter store. Entries do not
// survive a process restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*domain.DeadLetterEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*domain.DeadLetterEntry)}
}

func (s *MemoryStore) Put(ctx context.Context, entry *domain.DeadLetterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.DeadLetterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id].Clone(), nil
}

func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*domain.DeadLetterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*domain.DeadLetterEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e.Clone())
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

func (s *MemoryStore) Due(ctx context.Context, now time.Time) ([]*domain.DeadLetterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*domain.DeadLetterEntry
	for _, e := range s.entries {
		if !e.NextRetryAt.After(now) {
			due = append(due, e.Clone())
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextRetryAt.Before(due[j].NextRetryAt)
	})
	return due, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Repository. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	results []SavedResult
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Save stores result under a new UUID.
func (s *MemoryStore) Save(_ context.Context, result SavedResult) (SavedResult, error) {
	result.ID = uuid.NewString()
	result.CreatedAt = s.now().UTC()
	if result.PrePayment != nil {
		prePayment := *result.PrePayment
		result.PrePayment = &prePayment
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return result, nil
}

// List returns saved results sorted newest first.
func (s *MemoryStore) List(_ context.Context) ([]SavedResult, error) {
	s.mu.RLock()
	results := make([]SavedResult, len(s.results))
	copy(results, s.results)
	s.mu.RUnlock()

	// Reverse insertion order breaks creation-time ties.
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

// Get returns the saved result with the given ID.
func (s *MemoryStore) Get(_ context.Context, id string) (SavedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, result := range s.results {
		if result.ID == id {
			return result, nil
		}
	}
	return SavedResult{}, ErrNotFound
}

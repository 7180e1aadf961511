package localstore

import (
	"context"
	"sync"
)

var _ Store = (*MemStore)(nil)

// MemStore is an in-memory Store. Values are copied on the way in and out.
// Used in tests and for throwaway sessions that need no durability.
type MemStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string][]byte)}
}

// Get returns the stored value for key, or ErrNotFound.
func (s *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

// Set stores a copy of value under key.
func (s *MemStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	s.values[key] = cp
	return nil
}

// Delete removes the value for key. Deleting an absent key is a no-op.
func (s *MemStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

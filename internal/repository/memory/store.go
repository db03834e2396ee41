package memory

import (
	"context"
	"sort"
	"sync"

	"gomate/internal/repository"
)

// Store is an in-memory repository.Store. Contents live for the process lifetime.
type Store struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{items: make(map[string]string)}
}

// GetItem returns the value stored under key.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

// SetItem stores value under key.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

// RemoveItem deletes key.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// GetAllKeys lists every stored key in sorted order.
func (s *Store) GetAllKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes every key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]string)
	return nil
}

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)

package store

import (
	"context"
	"sync"

	"PerpIndexer/internal/entity"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu    sync.RWMutex
	kinds map[entity.Kind]map[string][]byte
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		kinds: make(map[entity.Kind]map[string][]byte),
	}
}

func (s *MemoryStore) Load(_ context.Context, kind entity.Kind, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.kinds[kind][key]
	if !ok {
		return nil, ErrNotFound
	}
	// Return a copy to avoid external mutation.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, kind entity.Kind, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.kinds[kind]
	if !ok {
		bucket = make(map[string][]byte)
		s.kinds[kind] = bucket
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	bucket[key] = stored
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, kind entity.Kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.kinds[kind], key)
	return nil
}

// Len reports how many entities of a kind are stored. Test helper.
func (s *MemoryStore) Len(kind entity.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.kinds[kind])
}

// Keys returns the stored keys for a kind in unspecified order. Test helper.
func (s *MemoryStore) Keys(kind entity.Kind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.kinds[kind]))
	for k := range s.kinds[kind] {
		keys = append(keys, k)
	}
	return keys
}

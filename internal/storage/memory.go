package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps encoded values in a map. Values are stored as JSON so a
// caller can never alias what it saved.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	data, ok := s.values[key]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := decode(key, data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.values[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

// SetRaw stores bytes as-is, bypassing encoding.
func (s *MemoryStore) SetRaw(key string, data []byte) {
	s.mu.Lock()
	s.values[key] = data
	s.mu.Unlock()
}

package storage

import (
	"sync"

	"storefront/pkg/domain/model"
)

var _ model.SessionStorage = &MemoryStorage{}

type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string][]byte)}
}

func (s *MemoryStorage) Load(key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, model.ErrStorageKeyEmpty
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (s *MemoryStorage) Save(key string, data []byte) error {
	if key == "" {
		return model.ErrStorageKeyEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.entries[key] = stored
	return nil
}

func (s *MemoryStorage) Delete(key string) error {
	if key == "" {
		return model.ErrStorageKeyEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

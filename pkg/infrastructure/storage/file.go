package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"storefront/pkg/domain/model"
)

var _ model.SessionStorage = &FileStorage{}

type entriesJSON struct {
	Entries map[string]string `json:"entries"`
}

// FileStorage keeps every session blob in one JSON file and rewrites it on each change.
type FileStorage struct {
	mu       sync.Mutex
	filePath string
	entries  map[string]string
}

func NewFileStorage(filePath string) (*FileStorage, error) {
	entries, err := loadEntries(filePath)
	if err != nil {
		return nil, err
	}
	return &FileStorage{filePath: filePath, entries: entries}, nil
}

func (s *FileStorage) Load(key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, model.ErrStorageKeyEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

func (s *FileStorage) Save(key string, data []byte) error {
	if key == "" {
		return model.ErrStorageKeyEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.entries[key]
	s.entries[key] = string(data)
	if err := s.flush(); err != nil {
		s.restore(key, previous, existed)
		return err
	}
	return nil
}

func (s *FileStorage) Delete(key string) error {
	if key == "" {
		return model.ErrStorageKeyEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.entries[key]
	if !ok {
		return nil
	}
	delete(s.entries, key)
	if err := s.flush(); err != nil {
		s.restore(key, previous, true)
		return err
	}
	return nil
}

// restore puts back what a failed flush would otherwise leave out of step with the file.
func (s *FileStorage) restore(key, previous string, existed bool) {
	if existed {
		s.entries[key] = previous
		return
	}
	delete(s.entries, key)
}

func loadEntries(filePath string) (map[string]string, error) {
	file, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read session storage")
	}
	if len(file) == 0 {
		return make(map[string]string), nil
	}

	var data entriesJSON
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, errors.Wrapf(err, "decode session storage %s", filePath)
	}
	if data.Entries == nil {
		return make(map[string]string), nil
	}
	return data.Entries, nil
}

func (s *FileStorage) flush() error {
	jsonData, err := json.MarshalIndent(entriesJSON{Entries: s.entries}, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".sessions-*")
	if err != nil {
		return errors.Wrap(err, "create session storage temp file")
	}
	if _, err := tmp.Write(jsonData); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write session storage")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.WithStack(err)
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.filePath), "replace session storage")
}

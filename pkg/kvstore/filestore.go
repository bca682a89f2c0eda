package kvstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the whole map in memory and rewrites a single JSON file
// on every mutation. Writes go through a temp file and rename so a crash
// never leaves a half-written store behind.
type FileStore struct {
	mu   sync.RWMutex
	path string
	data map[string]string
}

func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("parse store file %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *FileStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.flushLocked(); err != nil {
		// keep memory consistent with disk on failure
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.flushLocked(); err != nil {
		s.data[key] = prev
		return err
	}
	return nil
}

func (s *FileStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

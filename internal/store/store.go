// Package store persists financial state as JSON files, one file per
// key, under a per-user directory. Loads never fail past this boundary:
// a missing or malformed file yields the caller's default.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"finsight/internal/log"
)

// Store is a durable key-value adapter rooted at a directory.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *log.Logger
}

// New creates a store rooted at dir. The directory is created lazily on
// the first save.
func New(dir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{
		dir:    dir,
		logger: logger.WithComponent(log.ComponentStore),
	}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads the value stored under key into out. It returns false when
// the key is absent or the stored JSON is malformed, leaving out for the
// caller to default; it never propagates an error.
func (s *Store) Load(key string, out any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read stored value",
				log.FieldStoreKey, key, log.FieldError, err.Error())
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("stored value is malformed, using default",
			log.FieldStoreKey, key, log.FieldError, err.Error())
		return false
	}
	return true
}

// Save writes v under key. The write goes through a temp file and a
// rename so a crash mid-write never leaves a truncated value behind.
func (s *Store) Save(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal value for key %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

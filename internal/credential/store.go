// Package credential holds the upstream API key for the lifetime of a
// process. The key lives in memory only and is never written to disk.
package credential

import (
	"errors"
	"strings"
	"sync"
)

// ErrNoCredential is returned when no key has been set
var ErrNoCredential = errors.New("OpenAI API key not configured")

// Store is an explicitly initialised, goroutine-safe holder for one API key
type Store struct {
	mu  sync.RWMutex
	key string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Set replaces the stored key. Blank keys are rejected.
func (s *Store) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key cannot be empty")
	}

	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	return nil
}

// Clear forgets the stored key
func (s *Store) Clear() {
	s.mu.Lock()
	s.key = ""
	s.mu.Unlock()
}

// APIKey returns the stored key or ErrNoCredential
func (s *Store) APIKey() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == "" {
		return "", ErrNoCredential
	}
	return s.key, nil
}

// IsSet reports whether a key is stored
func (s *Store) IsSet() bool {
	_, err := s.APIKey()
	return err == nil
}

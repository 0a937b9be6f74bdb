package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrNoToken = errors.New("no session token")

// Store holds the bearer token, the only durable state this client owns.
// The token lives in a single file so every view shares one read/write
// accessor instead of poking at an ambient storage slot.
type Store struct {
	mu   sync.RWMutex
	path string

	token  string
	loaded bool
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Token returns the current bearer token and whether one is present.
// The first call reads the token file; later calls use the cached value.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	if s.loaded {
		token := s.token
		s.mu.RUnlock()
		return token, token != ""
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		data, err := os.ReadFile(s.path)
		if err == nil {
			s.token = strings.TrimSpace(string(data))
		}
		s.loaded = true
	}
	return s.token, s.token != ""
}

// Save persists the token and makes it visible to all views immediately.
func (s *Store) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return err
	}
	s.token = token
	s.loaded = true
	return nil
}

// Clear logs the user out by removing the token file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.loaded = true
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

package config

import (
	"fmt"
	"sync"
)

// UniverseStore holds the live universe and persists replacements.
type UniverseStore struct {
	mu      sync.RWMutex
	path    string
	current *Universe
}

// OpenUniverseStore loads the universe file at path.
func OpenUniverseStore(path string) (*UniverseStore, error) {
	u, err := LoadUniverse(path)
	if err != nil {
		return nil, err
	}
	return &UniverseStore{path: path, current: u}, nil
}

// Get returns a copy of the current universe.
func (s *UniverseStore) Get() *Universe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Replace validates, saves and swaps in u. The in-memory universe is left
// untouched when saving fails.
func (s *UniverseStore) Replace(u *Universe) (*Universe, error) {
	next := u.Clone()
	next.normalize()
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("invalid universe: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := SaveUniverse(s.path, next); err != nil {
		return nil, err
	}
	s.current = next
	return next.Clone(), nil
}

// Package storage persists typed documents through pluggable backends and codecs.
package storage

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Store loads and saves a single typed document. It keeps no copy of the value:
// every Load reads the backend.
type Store[T any] struct {
	name    string
	backend Backend
	codec   Codec
	log     zerolog.Logger
}

// New creates a store for the document called name.
func New[T any](name string, backend Backend, codec Codec, log zerolog.Logger) *Store[T] {
	return &Store[T]{
		name:    name,
		backend: backend,
		codec:   codec,
		log:     log.With().Str("component", "storage").Str("document", name).Logger(),
	}
}

// Name returns the document name without extension.
func (s *Store[T]) Name() string {
	return s.name
}

// Location returns where the document is persisted.
func (s *Store[T]) Location() string {
	return s.backend.Location(s.key())
}

func (s *Store[T]) key() string {
	return s.name + s.codec.Extension()
}

// Load returns the persisted value. A missing document, a read error or a decode
// error all yield false; failures other than absence are logged.
func (s *Store[T]) Load() (T, bool) {
	var zero T

	data, err := s.backend.Read(s.key())
	if errors.Is(err, ErrNotFound) {
		s.log.Debug().Msg("No persisted document")
		return zero, false
	}
	if err != nil {
		s.log.Warn().Err(err).Str("location", s.Location()).Msg("Failed to read document")
		return zero, false
	}

	var v T
	if err := s.codec.Unmarshal(data, &v); err != nil {
		s.log.Warn().Err(err).Str("location", s.Location()).Msg("Failed to decode document")
		return zero, false
	}
	return v, true
}

// Save encodes v deterministically and replaces the persisted document.
func (s *Store[T]) Save(v T) error {
	data, err := s.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.name, err)
	}
	if err := s.backend.Write(s.key(), data); err != nil {
		return err
	}
	s.log.Debug().Int("bytes", len(data)).Msg("Document saved")
	return nil
}

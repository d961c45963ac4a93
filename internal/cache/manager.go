// Package cache holds the persisted, epoch-invalidated market statistic caches.
package cache

import (
	"sync"
	"time"

	"github.com/aristath/quotebar/internal/storage"
	"github.com/rs/zerolog"
)

const envelopeVersion = 1

// Envelope is the persisted form of a cache.
type Envelope[V any] struct {
	Version     int          `json:"version"`
	Epoch       string       `json:"epoch"`
	LastUpdated time.Time    `json:"lastUpdated"`
	Entries     map[string]V `json:"entries"`
}

// Manager owns one cache envelope. Every method is safe for concurrent use;
// a single lock serializes access so readers never observe a partial write.
// Values handed in or out are copied with the manager's clone function.
type Manager[V any] struct {
	mu     sync.RWMutex
	name   string
	store  *storage.Store[Envelope[V]]
	rule   EpochRule
	clone  func(V) V
	now    func() time.Time
	log    zerolog.Logger
	loaded bool
	dirty  bool
	env    *Envelope[V]
}

// NewManager creates a manager. clone may be nil for value types.
func NewManager[V any](name string, store *storage.Store[Envelope[V]], rule EpochRule, clone func(V) V, log zerolog.Logger) *Manager[V] {
	if clone == nil {
		clone = func(v V) V { return v }
	}
	return &Manager[V]{
		name:  name,
		store: store,
		rule:  rule,
		clone: clone,
		now:   time.Now,
		log:   log.With().Str("component", "cache").Str("cache", name).Logger(),
	}
}

// Name returns the cache kind name.
func (m *Manager[V]) Name() string {
	return m.name
}

// Rule returns the epoch rule.
func (m *Manager[V]) Rule() EpochRule {
	return m.rule
}

// SetClock replaces the wall clock used for stamps and epochs.
func (m *Manager[V]) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Load reads the persisted envelope. Only the first call has an effect.
func (m *Manager[V]) Load() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return
	}
	m.loaded = true

	env, ok := m.store.Load()
	if !ok {
		return
	}
	if env.Version != envelopeVersion {
		m.log.Warn().Int("version", env.Version).Msg("Discarding cache with unknown version")
		return
	}
	if env.Entries == nil {
		env.Entries = make(map[string]V)
	}
	m.env = &env

	m.log.Debug().
		Int("entries", len(env.Entries)).
		Str("epoch", env.Epoch).
		Msg("Cache loaded")
}

// Save persists the envelope if it changed since the last save. On failure the
// in-memory state is kept and stays dirty for the next attempt.
func (m *Manager[V]) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.env == nil || !m.dirty {
		return nil
	}
	if err := m.store.Save(*m.env); err != nil {
		m.log.Error().Err(err).Msg("Failed to save cache")
		return err
	}
	m.dirty = false
	return nil
}

// Get returns the entry for key.
func (m *Manager[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero V
	if m.env == nil {
		return zero, false
	}
	v, ok := m.env.Entries[key]
	if !ok {
		return zero, false
	}
	return m.clone(v), true
}

// GetMissing returns, in order, every candidate without an entry. With no
// envelope every candidate is missing.
func (m *Manager[V]) GetMissing(candidates []string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	missing := make([]string, 0, len(candidates))
	for _, key := range candidates {
		if m.env == nil {
			missing = append(missing, key)
			continue
		}
		if _, ok := m.env.Entries[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Set stores v under key and stamps the envelope.
func (m *Manager[V]) Set(key string, v V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureEnvelope()
	m.env.Entries[key] = m.clone(v)
	m.touch()
}

// Update replaces the entry for key with fn(current, present) atomically.
func (m *Manager[V]) Update(key string, fn func(current V, present bool) V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureEnvelope()
	current, ok := m.env.Entries[key]
	m.env.Entries[key] = fn(current, ok)
	m.touch()
}

// Delete removes key, reporting whether it was present.
func (m *Manager[V]) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.env == nil {
		return false
	}
	if _, ok := m.env.Entries[key]; !ok {
		return false
	}
	delete(m.env.Entries, key)
	m.touch()
	return true
}

// CurrentEpoch returns the epoch identifier for the present moment.
func (m *Manager[V]) CurrentEpoch() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rule.Epoch(m.now())
}

// NeedsInvalidation reports whether the envelope belongs to a different epoch.
func (m *Manager[V]) NeedsInvalidation(epoch string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.env != nil && m.env.Epoch != epoch
}

// ClearFor drops every entry and starts a new envelope for epoch.
func (m *Manager[V]) ClearFor(epoch string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(epoch)
}

// Clear drops every entry and starts a new envelope for the current epoch.
func (m *Manager[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(m.rule.Epoch(m.now()))
}

// InvalidateIfNeeded clears the cache when its epoch is stale.
func (m *Manager[V]) InvalidateIfNeeded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	epoch := m.rule.Epoch(m.now())
	if m.env == nil || m.env.Epoch == epoch {
		return false
	}

	m.log.Info().
		Str("from", m.env.Epoch).
		Str("to", epoch).
		Int("dropped", len(m.env.Entries)).
		Msg("Cache epoch changed, invalidating")
	m.clearLocked(epoch)
	return true
}

// Len returns the number of entries.
func (m *Manager[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.env == nil {
		return 0
	}
	return len(m.env.Entries)
}

// LastUpdated returns the envelope stamp, zero if there is no envelope.
func (m *Manager[V]) LastUpdated() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.env == nil {
		return time.Time{}
	}
	return m.env.LastUpdated
}

// Epoch returns the envelope's epoch, empty if there is no envelope.
func (m *Manager[V]) Epoch() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.env == nil {
		return ""
	}
	return m.env.Epoch
}

// Snapshot returns a deep copy of every entry.
func (m *Manager[V]) Snapshot() map[string]V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]V)
	if m.env == nil {
		return out
	}
	for k, v := range m.env.Entries {
		out[k] = m.clone(v)
	}
	return out
}

// SnapshotAny returns Snapshot as an untyped value for generic callers.
func (m *Manager[V]) SnapshotAny() any {
	return m.Snapshot()
}

// view runs fn with the envelope under the read lock. env may be nil.
func (m *Manager[V]) view(fn func(env *Envelope[V])) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(m.env)
}

// mutate runs fn under the write lock; a true result marks the cache changed.
func (m *Manager[V]) mutate(fn func(env *Envelope[V]) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureEnvelope()
	if fn(m.env) {
		m.touch()
	}
}

func (m *Manager[V]) ensureEnvelope() {
	if m.env != nil {
		return
	}
	m.loaded = true
	m.env = &Envelope[V]{
		Version: envelopeVersion,
		Epoch:   m.rule.Epoch(m.now()),
		Entries: make(map[string]V),
	}
}

func (m *Manager[V]) clearLocked(epoch string) {
	m.loaded = true
	m.env = &Envelope[V]{
		Version:     envelopeVersion,
		Epoch:       epoch,
		LastUpdated: m.now().UTC(),
		Entries:     make(map[string]V),
	}
	m.dirty = true
}

func (m *Manager[V]) touch() {
	m.env.LastUpdated = m.now().UTC()
	m.dirty = true
}

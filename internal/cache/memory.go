package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MemoryStore is the in-process cache backend.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	logger  *logrus.Entry

	// now is swappable for tests
	now func() time.Time
}

// NewMemoryStore creates an in-memory cache store.
func NewMemoryStore(logger *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		logger:  logger.WithField("component", "cache"),
		now:     time.Now,
	}
}

// Get returns the entry for key, or false.
func (m *MemoryStore) Get(_ context.Context, key Key) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key.String()]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

// Put records a successful fetch and resets the failure counter.
func (m *MemoryStore) Put(_ context.Context, key Key, payload json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key.String()] = &Entry{
		Key:       key,
		Payload:   payload,
		FetchedAt: m.now(),
	}
}

// ShouldUseCache reports whether a fresh entry exists for key.
func (m *MemoryStore) ShouldUseCache(_ context.Context, key Key) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key.String()]
	if !ok || len(e.Payload) == 0 {
		return false
	}
	return m.now().Sub(e.FetchedAt) < TTLFor(key.Function)
}

// MarkFailedRequest increments the failure counter and extends the backoff window.
func (m *MemoryStore) MarkFailedRequest(_ context.Context, key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key.String()
	e, ok := m.entries[k]
	if !ok {
		e = &Entry{Key: key, FetchedAt: m.now()}
		m.entries[k] = e
	}
	e.Failures++
	e.NextRetryAt = m.now().Add(backoffAfter(e.Failures))

	m.logger.WithFields(logrus.Fields{
		"key":           k,
		"failures":      e.Failures,
		"next_retry_at": e.NextRetryAt,
	}).Debug("Marked failed request")
}

// InBackoff reports whether key is inside its retry-not-before window.
func (m *MemoryStore) InBackoff(_ context.Context, key Key) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key.String()]
	if !ok || e.Failures == 0 {
		return false
	}
	return m.now().Before(e.NextRetryAt)
}

// CleanupOldEntries removes entries older than staleMultiple times their TTL.
func (m *MemoryStore) CleanupOldEntries(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for k, e := range m.entries {
		if now.Sub(e.FetchedAt) > staleMultiple*TTLFor(e.Key.Function) {
			delete(m.entries, k)
			removed++
		}
	}

	if removed > 0 {
		m.logger.WithField("removed", removed).Info("Cache cleanup swept stale entries")
	}
	return removed
}

// Len returns the number of cached entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

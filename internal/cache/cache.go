// Package cache is the single source of truth for "is this upstream answer
// still fresh, and if not, may I try again yet".
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Key uniquely identifies one cached upstream answer.
type Key struct {
	Symbol   string `json:"symbol"`
	Function string `json:"function"`
	Interval string `json:"interval,omitempty"`
}

// String renders the key in a form usable as a map or Redis key.
func (k Key) String() string {
	parts := []string{k.Function, k.Symbol}
	if k.Interval != "" {
		parts = append(parts, k.Interval)
	}
	return strings.Join(parts, ":")
}

// Entry is one cached answer with freshness and failure bookkeeping.
type Entry struct {
	Key         Key             `json:"key"`
	Payload     json.RawMessage `json:"payload"`
	FetchedAt   time.Time       `json:"fetched_at"`
	Failures    int             `json:"failures"`
	NextRetryAt time.Time       `json:"next_retry_at,omitempty"`
}

// Store is the cache contract shared by the memory and Redis backends.
// Concurrent reads are safe; concurrent writes to the same key are safe but
// not ordered (last write wins).
type Store interface {
	// Get returns the entry for key, or false. Pure read, no network effect.
	Get(ctx context.Context, key Key) (*Entry, bool)

	// Put records a successful fetch and resets the failure counter.
	Put(ctx context.Context, key Key, payload json.RawMessage)

	// ShouldUseCache reports whether a fresh entry exists for key.
	ShouldUseCache(ctx context.Context, key Key) bool

	// MarkFailedRequest increments the failure counter and extends the
	// exponential backoff window.
	MarkFailedRequest(ctx context.Context, key Key)

	// InBackoff reports whether key is inside its retry-not-before window.
	InBackoff(ctx context.Context, key Key) bool

	// CleanupOldEntries removes entries older than a large multiple of their
	// TTL and returns how many were removed.
	CleanupOldEntries(ctx context.Context) int
}

const (
	backoffBase = 30 * time.Second
	backoffCap  = time.Hour

	// staleMultiple governs the cleanup sweep: entries older than
	// staleMultiple*TTL are garbage.
	staleMultiple = 10
)

// backoffAfter returns how long to wait after the given consecutive failure
// count: 30s, 1m, 2m, ... capped at an hour.
func backoffAfter(failures int) time.Duration {
	d := backoffBase
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= backoffCap {
			return backoffCap
		}
	}
	return d
}

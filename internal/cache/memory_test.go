package cache

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*MemoryStore, *time.Time) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(log)
	store.now = func() time.Time { return now }

	return store, &now
}

func TestMemoryStore_PutGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	key := Key{Symbol: "SPY", Function: "GLOBAL_QUOTE"}

	_, ok := store.Get(ctx, key)
	assert.False(t, ok)

	store.Put(ctx, key, json.RawMessage(`{"a":1}`))

	e, ok := store.Get(ctx, key)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(e.Payload))
	assert.Zero(t, e.Failures)
}

func TestMemoryStore_FreshnessFollowsTTL(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()
	key := Key{Symbol: "SPY", Function: "GLOBAL_QUOTE"}

	store.Put(ctx, key, json.RawMessage(`{}`))
	assert.True(t, store.ShouldUseCache(ctx, key))

	// Quotes stay fresh for minutes, not hours.
	*now = now.Add(TTLFor("GLOBAL_QUOTE") + time.Second)
	assert.False(t, store.ShouldUseCache(ctx, key))
}

func TestMemoryStore_TTLVariesByFunction(t *testing.T) {
	assert.Less(t, TTLFor("GLOBAL_QUOTE"), TTLFor("TIME_SERIES_DAILY"))
	assert.Less(t, TTLFor("TIME_SERIES_DAILY"), TTLFor("CPI"))
	assert.Equal(t, defaultTTL, TTLFor("SOMETHING_UNKNOWN"))
}

func TestMemoryStore_PutResetsFailures(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	key := Key{Symbol: "SPY", Function: "GLOBAL_QUOTE"}

	store.MarkFailedRequest(ctx, key)
	store.MarkFailedRequest(ctx, key)
	assert.True(t, store.InBackoff(ctx, key))

	store.Put(ctx, key, json.RawMessage(`{}`))

	e, ok := store.Get(ctx, key)
	require.True(t, ok)
	assert.Zero(t, e.Failures)
	assert.False(t, store.InBackoff(ctx, key))
}

func TestMemoryStore_BackoffEscalates(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()
	key := Key{Symbol: "SPY", Function: "GLOBAL_QUOTE"}

	store.MarkFailedRequest(ctx, key)
	assert.True(t, store.InBackoff(ctx, key))

	// First failure backs off for the base window only.
	*now = now.Add(backoffBase + time.Second)
	assert.False(t, store.InBackoff(ctx, key))

	// Further failures double the window.
	store.MarkFailedRequest(ctx, key)
	*now = now.Add(backoffBase + time.Second)
	assert.True(t, store.InBackoff(ctx, key))
	*now = now.Add(backoffBase)
	assert.False(t, store.InBackoff(ctx, key))
}

func TestBackoffAfter_Caps(t *testing.T) {
	assert.Equal(t, backoffBase, backoffAfter(1))
	assert.Equal(t, 2*backoffBase, backoffAfter(2))
	assert.Equal(t, backoffCap, backoffAfter(50))
}

func TestMemoryStore_CleanupSweepsOnlyStaleEntries(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()

	fresh := Key{Symbol: "SPY", Function: "GLOBAL_QUOTE"}
	stale := Key{Symbol: "QQQ", Function: "GLOBAL_QUOTE"}

	store.Put(ctx, stale, json.RawMessage(`{}`))
	*now = now.Add(staleMultiple*TTLFor("GLOBAL_QUOTE") + time.Minute)
	store.Put(ctx, fresh, json.RawMessage(`{}`))

	removed := store.CleanupOldEntries(ctx)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, ok := store.Get(ctx, fresh)
	assert.True(t, ok)
	_, ok = store.Get(ctx, stale)
	assert.False(t, ok)
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "GLOBAL_QUOTE:SPY", Key{Symbol: "SPY", Function: "GLOBAL_QUOTE"}.String())
	assert.Equal(t, "TIME_SERIES_INTRADAY:SPY:5min",
		Key{Symbol: "SPY", Function: "TIME_SERIES_INTRADAY", Interval: "5min"}.String())
}

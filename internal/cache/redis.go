package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/index-back/pkg/config"
)

const redisKeyPrefix = "avcache:"

// RedisStore is the Redis-backed cache backend. Entries are stored as JSON
// with a native expiration of staleMultiple times their TTL, so Redis itself
// enforces the cleanup threshold; freshness within that window is still
// decided from the recorded fetch timestamp.
type RedisStore struct {
	client *redis.Client
	logger *logrus.Entry
	now    func() time.Time
}

// NewRedisStore connects to Redis and returns a cache store backed by it.
func NewRedisStore(cfg *config.RedisConfig, logger *logrus.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		logger: logger.WithField("component", "cache-redis"),
		now:    time.Now,
	}, nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Get returns the entry for key, or false. Corrupted or unreadable values are
// treated as cache misses, never as errors.
func (r *RedisStore) Get(ctx context.Context, key Key) (*Entry, bool) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key.String()).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.logger.WithError(err).WithField("key", key.String()).Warn("Redis read failed, treating as miss")
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		r.logger.WithError(err).WithField("key", key.String()).Warn("Corrupted cache entry, treating as miss")
		return nil, false
	}

	return &e, true
}

// Put records a successful fetch and resets the failure counter.
func (r *RedisStore) Put(ctx context.Context, key Key, payload json.RawMessage) {
	e := Entry{
		Key:       key,
		Payload:   payload,
		FetchedAt: r.now(),
	}
	r.set(ctx, key, &e)
}

// ShouldUseCache reports whether a fresh entry exists for key.
func (r *RedisStore) ShouldUseCache(ctx context.Context, key Key) bool {
	e, ok := r.Get(ctx, key)
	if !ok || len(e.Payload) == 0 {
		return false
	}
	return r.now().Sub(e.FetchedAt) < TTLFor(key.Function)
}

// MarkFailedRequest increments the failure counter and extends the backoff
// window. Two writers racing on one key is safe; last write wins.
func (r *RedisStore) MarkFailedRequest(ctx context.Context, key Key) {
	e, ok := r.Get(ctx, key)
	if !ok {
		e = &Entry{Key: key, FetchedAt: r.now()}
	}
	e.Failures++
	e.NextRetryAt = r.now().Add(backoffAfter(e.Failures))
	r.set(ctx, key, e)
}

// InBackoff reports whether key is inside its retry-not-before window.
func (r *RedisStore) InBackoff(ctx context.Context, key Key) bool {
	e, ok := r.Get(ctx, key)
	if !ok || e.Failures == 0 {
		return false
	}
	return r.now().Before(e.NextRetryAt)
}

// CleanupOldEntries sweeps entries that outlived the stale threshold. Redis
// expiration already bounds entry lifetime; the sweep only covers entries
// whose TTL policy shrank since they were written.
func (r *RedisStore) CleanupOldEntries(ctx context.Context) int {
	var cursor uint64
	removed := 0

	for {
		batch, next, err := r.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			r.logger.WithError(err).Warn("Cache cleanup scan failed")
			return removed
		}

		for _, k := range batch {
			data, err := r.client.Get(ctx, k).Result()
			if err != nil {
				continue
			}
			var e Entry
			if err := json.Unmarshal([]byte(data), &e); err != nil {
				// Corrupted entries are garbage by definition.
				r.client.Del(ctx, k)
				removed++
				continue
			}
			if r.now().Sub(e.FetchedAt) > staleMultiple*TTLFor(e.Key.Function) {
				r.client.Del(ctx, k)
				removed++
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if removed > 0 {
		r.logger.WithField("removed", removed).Info("Cache cleanup swept stale entries")
	}
	return removed
}

func (r *RedisStore) set(ctx context.Context, key Key, e *Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		r.logger.WithError(err).WithField("key", key.String()).Warn("Failed to marshal cache entry")
		return
	}

	expiration := staleMultiple * TTLFor(key.Function)
	if err := r.client.Set(ctx, redisKeyPrefix+key.String(), data, expiration).Err(); err != nil {
		r.logger.WithError(err).WithField("key", key.String()).Warn("Redis write failed")
	}
}

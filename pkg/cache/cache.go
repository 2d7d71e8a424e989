// Package cache is a small key/value cache with a Redis driver and an
// in-process fallback. Values are stored as JSON.
//
//	c := cache.New(rdb)            // rdb may be nil
//	var secret string
//	if !c.Get(ctx, "intent:...", &secret) { ... }
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/metrics"
)

// Store is implemented by the Redis and memory drivers.
type Store interface {
	// Get unmarshals the value under key into dest and reports a hit.
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Incr adds one to the counter under key. The window starts with the
	// first increment and the key expires when it ends.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Driver() string
}

// New returns the Redis driver when rdb is non-nil, memory otherwise.
func New(rdb *redis.Client) Store {
	if rdb == nil {
		return NewMemory()
	}
	return &redisStore{rdb: rdb}
}

// ─────────────────────────────────────────────
// Memory driver
// ─────────────────────────────────────────────

type entry struct {
	raw     []byte
	count   int64
	expires time.Time
}

type memoryStore struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory() Store {
	return &memoryStore{items: make(map[string]entry), now: time.Now}
}

func (m *memoryStore) Driver() string { return "memory" }

func (m *memoryStore) Get(_ context.Context, key string, dest any) bool {
	m.mu.Lock()
	e, ok := m.live(key)
	m.mu.Unlock()

	if !ok || e.raw == nil || json.Unmarshal(e.raw, dest) != nil {
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues("memory").Inc()
	return true
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = entry{raw: raw, expires: m.now().Add(ttl)}
	return nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *memoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		e = entry{expires: m.now().Add(window)}
	}
	e.count++
	m.items[key] = e
	return e.count, nil
}

// live returns the entry under key, dropping it if expired. Callers hold mu.
func (m *memoryStore) live(key string) (entry, bool) {
	e, ok := m.items[key]
	if !ok {
		return entry{}, false
	}
	if !m.now().Before(e.expires) {
		delete(m.items, key)
		return entry{}, false
	}
	return e, true
}

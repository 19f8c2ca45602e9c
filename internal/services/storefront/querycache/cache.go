// Package querycache keeps short-lived copies of backend reads in the shared
// cache store so repeated page loads do not hit the services every time.
package querycache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/payetonkawa/storefront/internal/platform/logging"
	"github.com/payetonkawa/storefront/internal/services/storefront/storage"
)

const (
	ScopeProducts = "products"
	ScopeOrders   = "orders"

	DefaultProductTTL = 5 * time.Minute
	DefaultOrderTTL   = 2 * time.Minute
)

// Cache is a read-through cache over a storage.CacheStore. A nil Cache or a
// nil store disables caching; every read then goes to the backend.
type Cache struct {
	store  storage.CacheStore
	logger logrus.FieldLogger
	now    func() time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for store failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New wraps store.
func New(store storage.CacheStore, opts ...Option) *Cache {
	c := &Cache{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	return c
}

func (c *Cache) enabled() bool {
	return c != nil && c.store != nil
}

// Remember returns the cached value under key, or calls fetch and stores its
// result for ttl. Fetch errors are returned as-is and never cached. A ttl of
// zero or less bypasses the cache.
func Remember[T any](ctx context.Context, c *Cache, key, scope string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	key = strings.TrimSpace(key)
	if !c.enabled() || ttl <= 0 || key == "" {
		return fetch(ctx)
	}
	if payload, ok := c.lookup(ctx, key); ok {
		var value T
		if err := json.Unmarshal(payload, &value); err == nil {
			return value, nil
		}
		c.delete(ctx, key)
	}

	value, err := fetch(ctx)
	if err != nil {
		return value, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}
	c.put(ctx, key, scope, ttl, payload)
	return value, nil
}

func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	entry, ok, err := c.store.GetCacheEntry(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("cache_key", key).Warn("cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if entry.Expired(c.now()) || len(entry.PayloadBytes) == 0 {
		c.delete(ctx, key)
		return nil, false
	}
	return entry.PayloadBytes, true
}

func (c *Cache) put(ctx context.Context, key, scope string, ttl time.Duration, payload []byte) {
	now := c.now().UTC()
	err := c.store.PutCacheEntry(ctx, storage.CacheEntry{
		CacheKey:     key,
		Scope:        scope,
		PayloadBytes: payload,
		CheckedAt:    now,
		ExpiresAt:    now.Add(ttl),
	})
	if err != nil {
		c.logger.WithError(err).WithField("cache_key", key).Warn("cache write failed")
	}
}

func (c *Cache) delete(ctx context.Context, key string) {
	if err := c.store.DeleteCacheEntry(ctx, key); err != nil {
		c.logger.WithError(err).WithField("cache_key", key).Warn("cache delete failed")
	}
}

// Invalidate drops every entry in scopes.
func (c *Cache) Invalidate(ctx context.Context, scopes ...string) {
	if !c.enabled() {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, scope := range scopes {
		if err := c.store.DeleteCacheScope(ctx, scope); err != nil {
			c.logger.WithError(err).WithField("cache_scope", scope).Warn("cache invalidation failed")
		}
	}
}

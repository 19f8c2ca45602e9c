package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by nil or closed stores.
var ErrNotConfigured = errors.New("storage is not configured")

// StateStore persists small per-client documents under fixed keys. Values are
// opaque bytes; callers own the encoding.
type StateStore interface {
	GetState(ctx context.Context, clientID, key string) ([]byte, bool, error)
	PutState(ctx context.Context, clientID, key string, value []byte) error
	DeleteState(ctx context.Context, clientID, key string) error
}

// CacheEntry is one cached backend read.
//
// Cache data is always derived and can be discarded and rebuilt from the
// backend services.
type CacheEntry struct {
	CacheKey     string
	Scope        string
	PayloadBytes []byte
	CheckedAt    time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the entry is past its expiry at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// CacheStore persists query cache entries grouped by scope.
type CacheStore interface {
	GetCacheEntry(ctx context.Context, cacheKey string) (CacheEntry, bool, error)
	PutCacheEntry(ctx context.Context, entry CacheEntry) error
	DeleteCacheEntry(ctx context.Context, cacheKey string) error
	DeleteCacheScope(ctx context.Context, scope string) error
}

// Store is the full backend contract.
type Store interface {
	StateStore
	CacheStore
	Ping(ctx context.Context) error
	Close() error
}

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payetonkawa/storefront/internal/services/storefront/storage"
)

// openTestStore connects to the server named by STOREFRONT_TEST_REDIS_ADDR
// under a unique prefix, or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR not set")
	}
	store, err := Open(context.Background(), Config{Addr: addr, Prefix: "test-" + uuid.NewString()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestKeyLayout(t *testing.T) {
	t.Parallel()
	store := New(nil, ":custom:")

	key, err := store.stateKey("c1", "cart-storage")
	require.NoError(t, err)
	assert.Equal(t, "custom:state:c1:cart-storage", key)
	assert.Equal(t, "custom:cache:products:all", store.cacheKey("products:all"))
	assert.Equal(t, "custom:cache-scope:products", store.scopeKey("products"))

	_, err = store.stateKey("", "k")
	require.Error(t, err)
	assert.Equal(t, defaultPrefix, New(nil, "").prefix)
}

func TestOpenRequiresAddress(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
}

func TestNilClientIsNotConfigured(t *testing.T) {
	t.Parallel()
	store := New(nil, "")

	_, _, err := store.GetState(context.Background(), "c", "k")
	require.ErrorIs(t, err, storage.ErrNotConfigured)
	require.NoError(t, store.Close())
}

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutState(ctx, "c1", "auth_token", []byte("tok")))
	value, ok, err := store.GetState(ctx, "c1", "auth_token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", string(value))

	require.NoError(t, store.DeleteState(ctx, "c1", "auth_token"))
	_, ok, err = store.GetState(ctx, "c1", "auth_token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheScopeLifecycle(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Minute).UTC().Truncate(time.Millisecond)

	require.NoError(t, store.PutCacheEntry(ctx, storage.CacheEntry{CacheKey: "products:all", Scope: "products", PayloadBytes: []byte("[]"), ExpiresAt: expires}))
	entry, ok, err := store.GetCacheEntry(ctx, "products:all")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "products", entry.Scope)
	assert.True(t, expires.Equal(entry.ExpiresAt))

	require.NoError(t, store.DeleteCacheScope(ctx, "products"))
	_, ok, err = store.GetCacheEntry(ctx, "products:all")
	require.NoError(t, err)
	assert.False(t, ok)
}

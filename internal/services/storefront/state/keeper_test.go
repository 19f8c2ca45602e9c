package state

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payetonkawa/storefront/internal/platform/logging"
	"github.com/payetonkawa/storefront/internal/services/storefront/cart"
	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/events"
	"github.com/payetonkawa/storefront/internal/services/storefront/session"
	"github.com/payetonkawa/storefront/internal/services/storefront/storage/sqlite"
)

type failingStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	fail error
}

func newFailingStore() *failingStore {
	return &failingStore{docs: map[string][]byte{}}
}

func (s *failingStore) GetState(_ context.Context, clientID, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.docs[clientID+"/"+key]
	return value, ok, nil
}

func (s *failingStore) PutState(_ context.Context, clientID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.docs[clientID+"/"+key] = value
	return nil
}

func (s *failingStore) DeleteState(_ context.Context, clientID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	delete(s.docs, clientID+"/"+key)
	return nil
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func kawa(id int64, price string) domain.Product {
	return domain.Product{ID: id, Label: "Kawa", Price: decimal.RequireFromString(price), Stock: 5}
}

func TestCartSurvivesRestart(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	keeper := NewKeeper(store, "c1", logging.Discard())
	carts := cart.NewStore(cart.Cart{}, keeper.SaveCart)
	carts.AddItem(kawa(1, "10.00"), 2)
	carts.AddItem(kawa(2, "5.00"), 1)
	keeper.Close()

	restored, err := NewKeeper(store, "c1", logging.Discard()).LoadCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.TotalItems())
	assert.True(t, restored.TotalPrice().Equal(decimal.RequireFromString("25")))
}

func TestLoadCartMissingIsEmpty(t *testing.T) {
	t.Parallel()
	keeper := NewKeeper(openStore(t), "nobody", logging.Discard())

	c, err := keeper.LoadCart(context.Background())
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestLoadCartRejectsCorruptDocument(t *testing.T) {
	t.Parallel()
	store := newFailingStore()
	store.docs["c1/"+CartKey] = []byte("{not json")
	keeper := NewKeeper(store, "c1", logging.Discard())

	c, err := keeper.LoadCart(context.Background())
	require.Error(t, err)
	assert.True(t, c.IsEmpty())
}

func TestSaveCartFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	store := newFailingStore()
	store.fail = errors.New("disk full")
	keeper := NewKeeper(store, "c1", logging.Discard())
	var failedKeys []string
	keeper.OnError(func(key string, err error) { failedKeys = append(failedKeys, key) })

	carts := cart.NewStore(cart.Cart{}, keeper.SaveCart)
	got := carts.AddItem(kawa(1, "1.00"), 1)

	assert.Equal(t, 1, got.TotalItems())
	assert.Equal(t, []string{CartKey}, failedKeys)
}

func TestFlagAndCredentialAreSeparateDocuments(t *testing.T) {
	t.Parallel()
	store := newFailingStore()
	keeper := NewKeeper(store, "c1", logging.Discard())
	ctx := context.Background()

	require.NoError(t, keeper.SaveFlag(ctx, true))
	require.NoError(t, keeper.SaveCredential(ctx, "tok"))

	assert.JSONEq(t, `{"isAuthenticated":true}`, string(store.docs["c1/"+AuthKey]))
	assert.Equal(t, "tok", string(store.docs["c1/"+CredentialKey]))

	flag, err := keeper.LoadFlag(ctx)
	require.NoError(t, err)
	assert.True(t, flag)
	token, ok, err := keeper.LoadCredential(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", token)

	require.NoError(t, keeper.DeleteCredential(ctx))
	_, ok, err = keeper.LoadCredential(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWritesAfterCloseAreRejected(t *testing.T) {
	t.Parallel()
	keeper := NewKeeper(newFailingStore(), "c1", logging.Discard())
	keeper.Close()

	require.ErrorIs(t, keeper.SaveFlag(context.Background(), true), ErrClosed)
}

func TestReloadReconcilesFromDurableState(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	// First process: log in and fill the cart, then lose the flag write.
	keeper := NewKeeper(store, "c1", logging.Discard())
	bus := events.NewBus()
	carts := cart.NewStore(cart.Cart{}, keeper.SaveCart)
	carts.Subscribe(bus)
	manager := session.NewManager("c1", keeper, &session.Credentials{}, bus, session.WithLogger(logging.Discard()))
	require.NoError(t, manager.Reconcile(ctx))
	manager.Login(ctx, domain.User{ID: 7}, "opaque-token")
	carts.AddItem(kawa(1, "3.00"), 1)
	require.NoError(t, keeper.SaveFlag(ctx, false))
	keeper.Close()

	// Second process: memory is empty, durable state is not.
	reloaded := NewKeeper(store, "c1", logging.Discard())
	creds := &session.Credentials{}
	next := session.NewManager("c1", reloaded, creds, events.NewBus(), session.WithLogger(logging.Discard()))
	require.NoError(t, next.Reconcile(ctx))

	assert.Equal(t, session.StatusSignedIn, next.Status())
	assert.Equal(t, "opaque-token", creds.Token())
	flag, err := reloaded.LoadFlag(ctx)
	require.NoError(t, err)
	assert.True(t, flag)
	restored, err := reloaded.LoadCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.TotalItems())
}

func TestReloadWithoutCredentialClearsCart(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	keeper := NewKeeper(store, "c1", logging.Discard())
	require.NoError(t, keeper.SaveFlag(ctx, true))
	carts := cart.NewStore(cart.Cart{}, keeper.SaveCart)
	carts.AddItem(kawa(1, "3.00"), 2)

	initial, err := keeper.LoadCart(ctx)
	require.NoError(t, err)
	bus := events.NewBus()
	restoredCarts := cart.NewStore(initial, keeper.SaveCart)
	restoredCarts.Subscribe(bus)
	manager := session.NewManager("c1", keeper, nil, bus, session.WithLogger(logging.Discard()))
	require.NoError(t, manager.Reconcile(ctx))

	assert.Equal(t, session.StatusSignedOut, manager.Status())
	assert.True(t, restoredCarts.Snapshot().IsEmpty())
	persisted, err := keeper.LoadCart(ctx)
	require.NoError(t, err)
	assert.True(t, persisted.IsEmpty())
}

// Package state saves and restores one client's durable documents: the cart,
// the authenticated flag, and the credential, each under its own key.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/payetonkawa/storefront/internal/platform/timeouts"
	"github.com/payetonkawa/storefront/internal/services/storefront/cart"
	"github.com/payetonkawa/storefront/internal/services/storefront/session"
	"github.com/payetonkawa/storefront/internal/services/storefront/storage"
)

// Durable document keys.
const (
	CartKey       = "cart-storage"
	AuthKey       = "auth-storage"
	CredentialKey = "auth_token"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("state keeper is closed")

type authDocument struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

// Keeper reads and writes one client's documents. Writes made through the
// cart observer run while the cart store lock is held, so they land in
// mutation order. Close waits for in-flight writes and rejects new ones.
type Keeper struct {
	store    storage.StateStore
	clientID string
	log      logrus.FieldLogger
	onError  func(key string, err error)

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

// NewKeeper returns a keeper scoped to clientID.
func NewKeeper(store storage.StateStore, clientID string, logger logrus.FieldLogger) *Keeper {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Keeper{
		store:    store,
		clientID: clientID,
		log:      logger.WithField("client_id", clientID),
	}
}

// OnError registers a callback for failed writes, used for metrics.
func (k *Keeper) OnError(fn func(key string, err error)) {
	k.onError = fn
}

var _ session.Persistence = (*Keeper)(nil)

// LoadCart restores the cart, returning an empty cart when none is stored or
// the stored document is unreadable.
func (k *Keeper) LoadCart(ctx context.Context) (cart.Cart, error) {
	raw, ok, err := k.store.GetState(ctx, k.clientID, CartKey)
	if err != nil {
		return cart.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	if !ok {
		return cart.Cart{}, nil
	}
	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return cart.Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

// SaveCart is a cart.Observer. Failures are logged and swallowed.
func (k *Keeper) SaveCart(c cart.Cart) {
	raw, err := json.Marshal(c)
	if err != nil {
		k.report(CartKey, fmt.Errorf("encode cart: %w", err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.StateWrite)
	defer cancel()
	if err := k.write(ctx, func(ctx context.Context) error {
		return k.store.PutState(ctx, k.clientID, CartKey, raw)
	}); err != nil {
		k.report(CartKey, err)
	}
}

// LoadFlag implements session.Persistence.
func (k *Keeper) LoadFlag(ctx context.Context) (bool, error) {
	raw, ok, err := k.store.GetState(ctx, k.clientID, AuthKey)
	if err != nil || !ok {
		return false, err
	}
	var doc authDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("decode auth flag: %w", err)
	}
	return doc.IsAuthenticated, nil
}

// SaveFlag implements session.Persistence.
func (k *Keeper) SaveFlag(ctx context.Context, authenticated bool) error {
	raw, err := json.Marshal(authDocument{IsAuthenticated: authenticated})
	if err != nil {
		return err
	}
	return k.tracked(AuthKey, k.write(ctx, func(ctx context.Context) error {
		return k.store.PutState(ctx, k.clientID, AuthKey, raw)
	}))
}

// LoadCredential implements session.Persistence.
func (k *Keeper) LoadCredential(ctx context.Context) (string, bool, error) {
	raw, ok, err := k.store.GetState(ctx, k.clientID, CredentialKey)
	if err != nil || !ok || len(raw) == 0 {
		return "", false, err
	}
	return string(raw), true, nil
}

// SaveCredential implements session.Persistence.
func (k *Keeper) SaveCredential(ctx context.Context, token string) error {
	return k.tracked(CredentialKey, k.write(ctx, func(ctx context.Context) error {
		return k.store.PutState(ctx, k.clientID, CredentialKey, []byte(token))
	}))
}

// DeleteCredential implements session.Persistence.
func (k *Keeper) DeleteCredential(ctx context.Context) error {
	return k.tracked(CredentialKey, k.write(ctx, func(ctx context.Context) error {
		return k.store.DeleteState(ctx, k.clientID, CredentialKey)
	}))
}

// Close rejects further writes and waits for in-flight ones.
func (k *Keeper) Close() {
	k.mu.Lock()
	k.closed = true
	k.mu.Unlock()
	k.inflight.Wait()
}

func (k *Keeper) write(ctx context.Context, fn func(context.Context) error) error {
	k.mu.RLock()
	if k.closed {
		k.mu.RUnlock()
		return ErrClosed
	}
	k.inflight.Add(1)
	k.mu.RUnlock()
	defer k.inflight.Done()
	return fn(ctx)
}

func (k *Keeper) tracked(key string, err error) error {
	if err != nil && k.onError != nil {
		k.onError(key, err)
	}
	return err
}

func (k *Keeper) report(key string, err error) {
	k.log.WithError(err).WithField("key", key).Warn("persist client state")
	if k.onError != nil {
		k.onError(key, err)
	}
}

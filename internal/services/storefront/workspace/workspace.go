// Package workspace owns the per-client state objects: cart store, session
// manager, credential holder, and event bus. Handlers receive them through
// the request context instead of reaching for globals.
package workspace

import (
	"context"

	"github.com/payetonkawa/storefront/internal/services/storefront/cart"
	"github.com/payetonkawa/storefront/internal/services/storefront/events"
	"github.com/payetonkawa/storefront/internal/services/storefront/gateway"
	"github.com/payetonkawa/storefront/internal/services/storefront/session"
	"github.com/payetonkawa/storefront/internal/services/storefront/state"
)

// Workspace is one browser client's hydrated state.
type Workspace struct {
	ClientID string
	Cart     *cart.Store
	Session  *session.Manager
	Bus      *events.Bus

	keeper      *state.Keeper
	unsubscribe []func()
}

// Credentials returns the holder read by outgoing requests.
func (w *Workspace) Credentials() *session.Credentials {
	return w.Session.Credentials()
}

func (w *Workspace) close() {
	for _, unsubscribe := range w.unsubscribe {
		unsubscribe()
	}
	w.keeper.Close()
}

type contextKey struct{}

// WithWorkspace attaches ws to ctx along with its credential holder, so
// gateway calls made with the returned context carry the bearer token.
func WithWorkspace(ctx context.Context, ws *Workspace) context.Context {
	ctx = context.WithValue(ctx, contextKey{}, ws)
	if ws != nil {
		ctx = gateway.WithTokenSource(ctx, ws.Credentials())
	}
	return ctx
}

// FromContext returns the workspace attached to ctx.
func FromContext(ctx context.Context) (*Workspace, bool) {
	ws, ok := ctx.Value(contextKey{}).(*Workspace)
	return ws, ok && ws != nil
}

// ExpireOnUnauthorized is the gateway hook that ends the session of the
// client whose request was rejected.
func ExpireOnUnauthorized(ctx context.Context) {
	if ws, ok := FromContext(ctx); ok {
		ws.Session.Expire(ctx)
	}
}

// Package workspacetest builds hydrated client workspaces for handler tests.
package workspacetest

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/payetonkawa/storefront/internal/platform/logging"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/sessioncookie"
	"github.com/payetonkawa/storefront/internal/services/storefront/storage/sqlite"
	"github.com/payetonkawa/storefront/internal/services/storefront/workspace"
)

// ClientID is the browser client used by Bind.
const ClientID = "0b9d7c3e-5f4a-4e1b-8c2d-1a2b3c4d5e6f"

// Env is a registry over a temporary sqlite state store.
type Env struct {
	Store    *sqlite.Store
	Registry *workspace.Registry
}

// New opens a fresh store and registry, closed when t ends.
func New(t testing.TB, opts ...workspace.Option) *Env {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open state store: %v", err)
	}
	opts = append([]workspace.Option{workspace.WithLogger(logging.Discard())}, opts...)
	registry := workspace.NewRegistry(store, opts...)
	t.Cleanup(func() {
		registry.Close()
		_ = store.Close()
	})
	return &Env{Store: store, Registry: registry}
}

// Seed stores a raw state value for ClientID before hydration.
func (e *Env) Seed(t testing.TB, key, value string) {
	t.Helper()
	if err := e.Store.PutState(context.Background(), ClientID, key, []byte(value)); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

// Workspace acquires the ClientID workspace for the rest of the test.
func (e *Env) Workspace(t testing.TB) *workspace.Workspace {
	t.Helper()
	ws, release, err := e.Registry.Acquire(context.Background(), ClientID)
	if err != nil {
		t.Fatalf("acquire workspace: %v", err)
	}
	t.Cleanup(release)
	return ws
}

// Bind attaches the ClientID cookie and workspace to r.
func (e *Env) Bind(t testing.TB, r *http.Request) *http.Request {
	t.Helper()
	ws := e.Workspace(t)
	r.AddCookie(&http.Cookie{Name: sessioncookie.Name, Value: ClientID})
	return r.WithContext(workspace.WithWorkspace(r.Context(), ws))
}

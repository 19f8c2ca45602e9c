// Package account serves sign-in, sign-up, sign-out, and the profile page.
package account

import (
	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/services/storefront/module"
)

// Module provides the account routes.
type Module struct {
	deps module.Dependencies
}

// New returns an account module.
func New(deps module.Dependencies) Module {
	return Module{deps: deps}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "account" }

// Mount wires account route handlers.
func (m Module) Mount(router *mux.Router) error {
	registerRoutes(router, newHandlers(m.deps))
	return nil
}

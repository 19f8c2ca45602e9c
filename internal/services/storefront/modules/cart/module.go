// Package cart serves the cart page and its mutations.
package cart

import (
	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/services/storefront/module"
)

// Module provides the cart routes.
type Module struct {
	deps module.Dependencies
}

// New returns a cart module.
func New(deps module.Dependencies) Module {
	return Module{deps: deps}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "cart" }

// Mount wires cart route handlers.
func (m Module) Mount(router *mux.Router) error {
	registerRoutes(router, newHandlers(m.deps))
	return nil
}

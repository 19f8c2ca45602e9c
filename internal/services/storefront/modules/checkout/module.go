// Package checkout turns the cart into an order.
package checkout

import (
	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/services/storefront/module"
)

// Module provides the checkout routes.
type Module struct {
	deps module.Dependencies
}

// New returns a checkout module.
func New(deps module.Dependencies) Module {
	return Module{deps: deps}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "checkout" }

// Mount wires checkout route handlers.
func (m Module) Mount(router *mux.Router) error {
	registerRoutes(router, newHandlers(m.deps))
	return nil
}

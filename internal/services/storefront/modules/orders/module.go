// Package orders serves the signed-in customer's order history.
package orders

import (
	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/services/storefront/module"
)

// Module provides the order routes.
type Module struct {
	deps module.Dependencies
}

// New returns an orders module.
func New(deps module.Dependencies) Module {
	return Module{deps: deps}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "orders" }

// Mount wires order route handlers.
func (m Module) Mount(router *mux.Router) error {
	registerRoutes(router, newHandlers(m.deps))
	return nil
}

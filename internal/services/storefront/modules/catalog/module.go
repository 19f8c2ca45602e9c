// Package catalog serves the home page and the product pages.
package catalog

import (
	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/services/storefront/module"
)

// Module provides the public catalog routes.
type Module struct {
	deps module.Dependencies
}

// New returns a catalog module.
func New(deps module.Dependencies) Module {
	return Module{deps: deps}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "catalog" }

// Mount wires catalog route handlers.
func (m Module) Mount(router *mux.Router) error {
	registerRoutes(router, newHandlers(m.deps))
	return nil
}

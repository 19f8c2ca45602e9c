// Package app mounts feature modules onto the storefront router.
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/services/storefront/module"
)

// ComposeInput carries the modules and the middleware shared by their routes.
type ComposeInput struct {
	Modules    []module.Module
	Middleware []mux.MiddlewareFunc
}

// Compose mounts every module on one subrouter of root so the shared
// middleware only runs for module routes. Routes registered on root before
// Compose keep priority. It returns the subrouter.
func Compose(root *mux.Router, input ComposeInput) (*mux.Router, error) {
	if root == nil {
		return nil, errors.New("router is required")
	}
	pages := root.NewRoute().Subrouter()
	pages.Use(input.Middleware...)

	seen := make(map[string]struct{}, len(input.Modules))
	for _, feature := range input.Modules {
		if feature == nil {
			return nil, errors.New("module is nil")
		}
		id := strings.TrimSpace(feature.ID())
		if id == "" {
			return nil, errors.New("module id is required")
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("module %q is mounted twice", id)
		}
		seen[id] = struct{}{}
		if err := feature.Mount(pages); err != nil {
			return nil, fmt.Errorf("mount module %q: %w", id, err)
		}
	}
	return pages, nil
}

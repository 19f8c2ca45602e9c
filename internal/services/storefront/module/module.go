// Package module defines the feature contract used by storefront composition.
package module

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/payetonkawa/storefront/internal/services/storefront/platform/ratelimit"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/requestmeta"
	"github.com/payetonkawa/storefront/internal/services/storefront/querycache"
)

// Module declares the minimum contract required by storefront composition.
type Module interface {
	ID() string
	Mount(router *mux.Router) error
}

// CartRecorder counts cart mutations.
type CartRecorder interface {
	CartMutation(operation string)
}

// Dependencies carries what feature modules share. Backend access goes
// through Reads so cached reads and their invalidation stay in one place.
type Dependencies struct {
	Reads        *querycache.Reads
	Policy       requestmeta.Policy
	Logger       logrus.FieldLogger
	Cart         CartRecorder
	LoginLimiter *ratelimit.Limiter
}

type nopCartRecorder struct{}

func (nopCartRecorder) CartMutation(string) {}

// CartRecorderOrNop returns d.Cart, or a recorder that drops everything.
func (d Dependencies) CartRecorderOrNop() CartRecorder {
	if d.Cart == nil {
		return nopCartRecorder{}
	}
	return d.Cart
}

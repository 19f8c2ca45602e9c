// Package modules lists the storefront feature modules.
package modules

import (
	"github.com/payetonkawa/storefront/internal/services/storefront/module"
	"github.com/payetonkawa/storefront/internal/services/storefront/modules/account"
	"github.com/payetonkawa/storefront/internal/services/storefront/modules/cart"
	"github.com/payetonkawa/storefront/internal/services/storefront/modules/catalog"
	"github.com/payetonkawa/storefront/internal/services/storefront/modules/checkout"
	"github.com/payetonkawa/storefront/internal/services/storefront/modules/orders"
)

// Default returns the page modules in mount order.
func Default(deps module.Dependencies) []module.Module {
	return []module.Module{
		catalog.New(deps),
		cart.New(deps),
		account.New(deps),
		checkout.New(deps),
		orders.New(deps),
	}
}

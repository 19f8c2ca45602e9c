package querycache

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/gateway"
)

// TTLs holds the freshness window per scope.
type TTLs struct {
	Products time.Duration
	Orders   time.Duration
}

// DefaultTTLs matches the storefront's page freshness.
func DefaultTTLs() TTLs {
	return TTLs{Products: DefaultProductTTL, Orders: DefaultOrderTTL}
}

// Reads serves cached catalog and order reads and invalidates the affected
// scopes on writes.
type Reads struct {
	gateway *gateway.Gateway
	cache   *Cache
	ttls    TTLs
}

// NewReads wires the gateway to cache.
func NewReads(gw *gateway.Gateway, cache *Cache, ttls TTLs) *Reads {
	return &Reads{gateway: gw, cache: cache, ttls: ttls}
}

// Gateway exposes the uncached clients.
func (r *Reads) Gateway() *gateway.Gateway {
	return r.gateway
}

func productListKey() string {
	return "products:list"
}

func productRangeKey(min, max decimal.Decimal) string {
	return "products:range:" + min.String() + ":" + max.String()
}

func productKey(id int64) string {
	return "product:id:" + strconv.FormatInt(id, 10)
}

func customerOrdersKey(customerID int64) string {
	return "orders:customer:" + strconv.FormatInt(customerID, 10)
}

func orderKey(customerID, orderID int64) string {
	return "order:customer:" + strconv.FormatInt(customerID, 10) + ":id:" + strconv.FormatInt(orderID, 10)
}

// Products returns the catalog.
func (r *Reads) Products(ctx context.Context) ([]domain.Product, error) {
	return Remember(ctx, r.cache, productListKey(), ScopeProducts, r.ttls.Products, r.gateway.Products.List)
}

// ProductsInRange returns the products priced within [min, max].
func (r *Reads) ProductsInRange(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error) {
	return Remember(ctx, r.cache, productRangeKey(min, max), ScopeProducts, r.ttls.Products, func(ctx context.Context) ([]domain.Product, error) {
		return r.gateway.Products.ListByPriceRange(ctx, min, max)
	})
}

// Product returns one product.
func (r *Reads) Product(ctx context.Context, id int64) (domain.Product, error) {
	return Remember(ctx, r.cache, productKey(id), ScopeProducts, r.ttls.Products, func(ctx context.Context) (domain.Product, error) {
		return r.gateway.Products.Get(ctx, id)
	})
}

// Stock always asks the product service.
func (r *Reads) Stock(ctx context.Context, id int64) (int, error) {
	return r.gateway.Products.Stock(ctx, id)
}

// CustomerOrders returns the orders of customerID. Without a known customer
// the list comes uncached from the token-scoped /orders endpoint.
func (r *Reads) CustomerOrders(ctx context.Context, customerID int64) ([]domain.Order, error) {
	if customerID == 0 {
		return r.gateway.Orders.List(ctx, 0)
	}
	return Remember(ctx, r.cache, customerOrdersKey(customerID), ScopeOrders, r.ttls.Orders, func(ctx context.Context) ([]domain.Order, error) {
		return r.gateway.Orders.ListByCustomer(ctx, customerID)
	})
}

// Order returns one order. Cached copies are keyed by the viewing customer so
// one customer's cache never serves another.
func (r *Reads) Order(ctx context.Context, customerID, orderID int64) (domain.Order, error) {
	if customerID == 0 {
		return r.gateway.Orders.Get(ctx, orderID)
	}
	return Remember(ctx, r.cache, orderKey(customerID, orderID), ScopeOrders, r.ttls.Orders, func(ctx context.Context) (domain.Order, error) {
		return r.gateway.Orders.Get(ctx, orderID)
	})
}

// UpdateStock sets a product's stock and drops cached product reads.
func (r *Reads) UpdateStock(ctx context.Context, id int64, stock int) (int, error) {
	updated, err := r.gateway.Products.UpdateStock(ctx, id, stock)
	if err != nil {
		return 0, err
	}
	r.cache.Invalidate(ctx, ScopeProducts)
	return updated, nil
}

// CreateOrder places an order. Stock moves server-side, so product reads are
// dropped along with orders.
func (r *Reads) CreateOrder(ctx context.Context, order domain.NewOrder) (domain.Order, error) {
	created, err := r.gateway.Orders.Create(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}
	r.cache.Invalidate(ctx, ScopeOrders, ScopeProducts)
	return created, nil
}

// ConfirmOrder confirms a pending order.
func (r *Reads) ConfirmOrder(ctx context.Context, id int64) (domain.Order, error) {
	confirmed, err := r.gateway.Orders.Confirm(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	r.cache.Invalidate(ctx, ScopeOrders)
	return confirmed, nil
}

// CancelOrder cancels an order.
func (r *Reads) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	cancelled, err := r.gateway.Orders.Cancel(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	r.cache.Invalidate(ctx, ScopeOrders, ScopeProducts)
	return cancelled, nil
}

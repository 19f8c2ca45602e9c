package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by the product service. Price decodes
// from a JSON number or a numeric string.
type Product struct {
	ID          int64           `json:"id"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Matches reports whether the lowercased query appears in the label or the
// description. An empty query matches everything.
func (p Product) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Label), query) ||
		strings.Contains(strings.ToLower(p.Description), query)
}

// PriceRange is an inclusive price filter. Nil bounds are open.
type PriceRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// Bounded reports whether both ends are set.
func (r PriceRange) Bounded() bool {
	return r.Min != nil && r.Max != nil
}

// Contains reports whether price lies inside the range.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	if r.Min != nil && price.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && price.GreaterThan(*r.Max) {
		return false
	}
	return true
}

// FilterProducts returns the products matching query and inside prices, in
// their original order.
func FilterProducts(products []Product, query string, prices PriceRange) []Product {
	filtered := make([]Product, 0, len(products))
	for _, product := range products {
		if product.Matches(query) && prices.Contains(product.Price) {
			filtered = append(filtered, product)
		}
	}
	return filtered
}

// ProductDraft is the product creation payload.
type ProductDraft struct {
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// ProductUpdate is a partial product update.
type ProductUpdate struct {
	Label       *string          `json:"label,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
}

// SeedResult is returned by the product seeding endpoint.
type SeedResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Package cart holds the shopping cart value and the per-client store that
// owns the current value.
package cart

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
)

var (
	// FreeShippingThreshold is the subtotal from which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(50)
	// ShippingFee is charged below the threshold.
	ShippingFee = decimal.RequireFromString("5.99")
)

// Line is one product in the cart. The product (and its price) is the
// snapshot captured when the line was created.
type Line struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Subtotal is the captured unit price times the quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an immutable ordered list of lines with at most one line per
// product id and every quantity at least 1. Operations return a new Cart and
// never modify the receiver.
type Cart struct {
	lines []Line
}

// New builds a cart from lines, merging duplicate product ids in first-seen
// order and dropping non-positive quantities.
func New(lines ...Line) Cart {
	var c Cart
	for _, line := range lines {
		c = c.Add(line.Product, line.Quantity)
	}
	return c
}

// Lines returns a copy of the cart lines in insertion order.
func (c Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

// Len returns the number of distinct products.
func (c Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Line returns the line for productID.
func (c Cart) Line(productID int64) (Line, bool) {
	if i := c.index(productID); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

func (c Cart) index(productID int64) int {
	for i, line := range c.lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Add increases the quantity of the product's line, or appends a new line.
// The existing line keeps its captured product snapshot. Quantities below 1
// leave the cart unchanged, as does an increase that would overflow the
// line. Stock is not checked here.
func (c Cart) Add(product domain.Product, quantity int) Cart {
	if quantity < 1 {
		return c
	}
	lines := c.Lines()
	if i := c.index(product.ID); i >= 0 {
		if lines[i].Quantity > math.MaxInt-quantity {
			return c
		}
		lines[i].Quantity += quantity
		return Cart{lines: lines}
	}
	return Cart{lines: append(lines, Line{Product: product, Quantity: quantity})}
}

// UpdateQuantity overwrites the quantity of productID's line. A quantity of
// zero or less removes the line; an absent product is a no-op.
func (c Cart) UpdateQuantity(productID int64, quantity int) Cart {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	i := c.index(productID)
	if i < 0 {
		return c
	}
	lines := c.Lines()
	lines[i].Quantity = quantity
	return Cart{lines: lines}
}

// Remove drops productID's line; an absent product is a no-op.
func (c Cart) Remove(productID int64) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	lines := make([]Line, 0, len(c.lines)-1)
	lines = append(lines, c.lines[:i]...)
	lines = append(lines, c.lines[i+1:]...)
	return Cart{lines: lines}
}

// Clear returns the empty cart.
func (c Cart) Clear() Cart {
	return Cart{}
}

// TotalItems sums the quantities.
func (c Cart) TotalItems() int {
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice sums captured unit price times quantity.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Shipping is free from FreeShippingThreshold, otherwise ShippingFee. An
// empty cart ships nothing.
func (c Cart) Shipping() decimal.Decimal {
	if c.IsEmpty() || c.TotalPrice().GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return ShippingFee
}

// FreeShippingRemaining is the amount still needed for free shipping.
func (c Cart) FreeShippingRemaining() decimal.Decimal {
	remaining := FreeShippingThreshold.Sub(c.TotalPrice())
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// GrandTotal is the subtotal plus shipping.
func (c Cart) GrandTotal() decimal.Decimal {
	return c.TotalPrice().Add(c.Shipping())
}

// OrderLines projects the cart into order creation lines.
func (c Cart) OrderLines() []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(c.lines))
	for _, line := range c.lines {
		lines = append(lines, domain.OrderLine{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		})
	}
	return lines
}

type document struct {
	Items []Line `json:"items"`
}

// MarshalJSON encodes the cart as {"items": [...]}.
func (c Cart) MarshalJSON() ([]byte, error) {
	items := c.lines
	if items == nil {
		items = []Line{}
	}
	return json.Marshal(document{Items: items})
}

// UnmarshalJSON decodes {"items": [...]}, normalising duplicates and
// non-positive quantities.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*c = New(doc.Items...)
	return nil
}

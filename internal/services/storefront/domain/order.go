package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state owned by the order service.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderPending:    "En attente",
	OrderConfirmed:  "Confirmée",
	OrderProcessing: "En préparation",
	OrderShipped:    "Expédiée",
	OrderDelivered:  "Livrée",
	OrderCancelled:  "Annulée",
}

// OrderStatuses lists every known status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}
}

// Known reports whether s is one of the statuses above.
func (s OrderStatus) Known() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Display returns s, or pending when s is unknown.
func (s OrderStatus) Display() OrderStatus {
	if s.Known() {
		return s
	}
	return OrderPending
}

// Label returns the customer-facing label.
func (s OrderStatus) Label() string {
	return orderStatusLabels[s.Display()]
}

// Terminal reports whether no further transition can happen.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Cancellable reports whether the customer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s.Display() == OrderPending
}

// OrderItem is one line of an order, priced at order time.
type OrderItem struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Product   *Product        `json:"product,omitempty"`
}

// Subtotal is unit price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a customer order.
type Order struct {
	ID              int64           `json:"id"`
	CustomerID      int64           `json:"customerId"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          OrderStatus     `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	BillingAddress  string          `json:"billingAddress,omitempty"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ItemCount sums item quantities.
func (o Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// OrderLine is one requested line in an order creation payload.
type OrderLine struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// NewOrder is the order creation payload. CustomerID is filled by the order
// service from the bearer credential when zero.
type NewOrder struct {
	CustomerID      int64       `json:"customerId,omitempty"`
	Items           []OrderLine `json:"items"`
	ShippingAddress string      `json:"shippingAddress,omitempty"`
	BillingAddress  string      `json:"billingAddress,omitempty"`
	Notes           string      `json:"notes,omitempty"`
}

// OrderUpdate is a partial order update.
type OrderUpdate struct {
	Status          *OrderStatus `json:"status,omitempty"`
	Notes           *string      `json:"notes,omitempty"`
	ShippingAddress *string      `json:"shippingAddress,omitempty"`
	BillingAddress  *string      `json:"billingAddress,omitempty"`
}

// FormatAddress renders the single-line address string sent with orders.
func FormatAddress(address, city, postalCode, country string) string {
	return address + ", " + city + " " + postalCode + ", " + country
}

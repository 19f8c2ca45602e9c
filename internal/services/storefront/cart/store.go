package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/events"
)

// Observer receives the new cart after every change.
type Observer func(Cart)

// Store owns one client's current cart. Mutations are serialized; observers
// run under the store lock so they see changes in order.
type Store struct {
	mu        sync.Mutex
	cart      Cart
	observers []Observer
}

// NewStore returns a store holding initial.
func NewStore(initial Cart, observers ...Observer) *Store {
	return &Store{cart: initial, observers: observers}
}

// Snapshot returns the current cart.
func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// AddItem applies Cart.Add.
func (s *Store) AddItem(product domain.Product, quantity int) Cart {
	return s.apply(func(c Cart) Cart { return c.Add(product, quantity) })
}

// UpdateQuantity applies Cart.UpdateQuantity.
func (s *Store) UpdateQuantity(productID int64, quantity int) Cart {
	return s.apply(func(c Cart) Cart { return c.UpdateQuantity(productID, quantity) })
}

// RemoveItem applies Cart.Remove.
func (s *Store) RemoveItem(productID int64) Cart {
	return s.apply(func(c Cart) Cart { return c.Remove(productID) })
}

// Clear empties the cart.
func (s *Store) Clear() Cart {
	return s.apply(func(c Cart) Cart { return c.Clear() })
}

// TotalItems reads the current total quantity.
func (s *Store) TotalItems() int {
	return s.Snapshot().TotalItems()
}

// TotalPrice reads the current subtotal.
func (s *Store) TotalPrice() decimal.Decimal {
	return s.Snapshot().TotalPrice()
}

// Subscribe clears the cart whenever bus publishes SessionEnded.
func (s *Store) Subscribe(bus *events.Bus) func() {
	return bus.Subscribe(events.SessionEnded, func(events.Event) {
		s.Clear()
	})
}

func (s *Store) apply(op func(Cart) Cart) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = op(s.cart)
	for _, observe := range s.observers {
		observe(s.cart)
	}
	return s.cart
}

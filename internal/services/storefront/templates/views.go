package templates

import (
	"html/template"

	"github.com/payetonkawa/storefront/internal/services/storefront/cart"
	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/forms"
)

// Toast is the transient notice shown at the top of a page.
type Toast struct {
	Kind     string
	Message  string
	RetryURL string
}

// LayoutData feeds the page shell.
type LayoutData struct {
	Title          string
	CurrentPath    string
	SignedIn       bool
	SessionPending bool
	UserEmail      string
	CartCount      int
	Toast          *Toast
	Year           int
	Body           template.HTML
}

type HomeView struct {
	Featured []domain.Product
}

type ProductsView struct {
	Query    string
	MinPrice string
	MaxPrice string
	Products []domain.Product
	Filtered bool
}

type ProductView struct {
	Product domain.Product
	InCart  int
}

// Addable is how many more units fit under the current stock.
func (v ProductView) Addable() int {
	if left := v.Product.Stock - v.InCart; left > 0 {
		return left
	}
	return 0
}

type CartView struct {
	Cart     cart.Cart
	SignedIn bool
}

type CheckoutView struct {
	Cart   cart.Cart
	Form   forms.Checkout
	Errors forms.Errors
}

type OrdersView struct {
	Orders []domain.Order
}

type OrderView struct {
	Order domain.Order
}

type LoginView struct {
	Email  string
	Next   string
	Errors forms.Errors
}

type RegisterView struct {
	Form   forms.Register
	Errors forms.Errors
}

type ProfileView struct {
	Customer domain.Customer
	Form     forms.Profile
	Errors   forms.Errors
	Editing  bool
}

type ErrorView struct {
	Status   int
	Title    string
	Message  string
	RetryURL string
}

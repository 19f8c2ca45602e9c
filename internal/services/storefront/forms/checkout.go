package forms

import (
	"net/http"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
)

// DefaultCountry pre-fills the shipping country.
const DefaultCountry = "France"

var checkoutMessages = map[string]string{
	"address":        "Veuillez remplir toutes les informations de livraison",
	"city":           "Veuillez remplir toutes les informations de livraison",
	"postalCode":     "Le code postal doit contenir 5 chiffres",
	"country":        "Le pays est requis",
	"cardNumber":     "Numéro de carte invalide",
	"expiryDate":     "Date d'expiration invalide (MM/AA)",
	"cvv":            "CVV invalide",
	"cardholderName": "Le nom du titulaire est requis",
}

// Checkout is the shipping and payment form. Payment fields are only used
// to build the order note; they never leave the storefront.
type Checkout struct {
	Address        string `form:"address" validate:"required"`
	City           string `form:"city" validate:"required"`
	PostalCode     string `form:"postalCode" validate:"postalcode"`
	Country        string `form:"country" validate:"required"`
	CardNumber     string `form:"cardNumber" validate:"cardnumber"`
	ExpiryDate     string `form:"expiryDate" validate:"expiry"`
	CVV            string `form:"cvv" validate:"cvv"`
	CardholderName string `form:"cardholderName" validate:"required"`
}

// CheckoutFrom pre-fills the shipping fields from a customer.
func CheckoutFrom(c domain.Customer) Checkout {
	f := Checkout{Address: c.Address, City: c.City, PostalCode: c.PostalCode, Country: c.Country}
	if f.Country == "" {
		f.Country = DefaultCountry
	}
	return f
}

// ParseCheckout reads the checkout form.
func ParseCheckout(r *http.Request) Checkout {
	f := Checkout{
		Address:        Value(r, "address"),
		City:           Value(r, "city"),
		PostalCode:     Value(r, "postalCode"),
		Country:        Value(r, "country"),
		CardNumber:     Value(r, "cardNumber"),
		ExpiryDate:     Value(r, "expiryDate"),
		CVV:            Value(r, "cvv"),
		CardholderName: Value(r, "cardholderName"),
	}
	if f.Country == "" {
		f.Country = DefaultCountry
	}
	return f
}

// Validate checks the checkout form.
func (f Checkout) Validate() Errors {
	return Validate(f, checkoutMessages)
}

// FullAddress renders the single-line address used for shipping and billing.
func (f Checkout) FullAddress() string {
	return domain.FormatAddress(f.Address, f.City, f.PostalCode, f.Country)
}

// PaymentNote is the order note naming the card's last four digits.
func (f Checkout) PaymentNote() string {
	digits := CardDigits(f.CardNumber)
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "Paiement par carte se terminant par " + digits
}

// Scrubbed returns the form without payment secrets, for re-rendering after
// a failed submission.
func (f Checkout) Scrubbed() Checkout {
	f.CardNumber = ""
	f.CVV = ""
	return f
}

package forms

import (
	"net/http"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
)

var identityMessages = map[string]string{
	"firstName":  "Le prénom doit contenir au moins 2 caractères",
	"lastName":   "Le nom doit contenir au moins 2 caractères",
	"email":      "Email invalide",
	"phone":      "Numéro de téléphone invalide",
	"address":    "L'adresse doit contenir au moins 5 caractères",
	"city":       "La ville doit contenir au moins 2 caractères",
	"postalCode": "Le code postal doit contenir 5 chiffres",
	"country":    "Le pays est requis",
}

var passwordMessages = map[string]string{
	"password":        "Le mot de passe doit contenir au moins 6 caractères",
	"confirmPassword": "Les mots de passe ne correspondent pas",
}

func merged(tables ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, table := range tables {
		for key, value := range table {
			out[key] = value
		}
	}
	return out
}

// Login is the sign-in form.
type Login struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

// ParseLogin reads the login form.
func ParseLogin(r *http.Request) Login {
	return Login{Email: Value(r, "email"), Password: r.PostFormValue("password")}
}

// Validate checks the login form.
func (f Login) Validate() Errors {
	return Validate(f, merged(identityMessages, passwordMessages))
}

// Credentials converts the form.
func (f Login) Credentials() domain.Credentials {
	return domain.Credentials{Email: f.Email, Password: f.Password}
}

// Register is the sign-up form.
type Register struct {
	FirstName       string `form:"firstName" validate:"min=2"`
	LastName        string `form:"lastName" validate:"min=2"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password"`
	Phone           string `form:"phone" validate:"omitempty,phone"`
	Address         string `form:"address" validate:"min=5"`
	City            string `form:"city" validate:"min=2"`
	PostalCode      string `form:"postalCode" validate:"postalcode"`
	Country         string `form:"country" validate:"min=2"`
}

// ParseRegister reads the sign-up form.
func ParseRegister(r *http.Request) Register {
	return Register{
		FirstName:       Value(r, "firstName"),
		LastName:        Value(r, "lastName"),
		Email:           Value(r, "email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
		Phone:           Value(r, "phone"),
		Address:         Value(r, "address"),
		City:            Value(r, "city"),
		PostalCode:      Value(r, "postalCode"),
		Country:         Value(r, "country"),
	}
}

// Validate checks the sign-up form.
func (f Register) Validate() Errors {
	return Validate(f, merged(identityMessages, passwordMessages))
}

// Registration converts the form. The confirmation is not sent.
func (f Register) Registration() domain.Registration {
	return domain.Registration{
		FirstName:  f.FirstName,
		LastName:   f.LastName,
		Email:      f.Email,
		Password:   f.Password,
		Phone:      f.Phone,
		Address:    f.Address,
		City:       f.City,
		PostalCode: f.PostalCode,
		Country:    f.Country,
	}
}

// Profile is the profile edit form.
type Profile struct {
	FirstName  string `form:"firstName" validate:"min=2"`
	LastName   string `form:"lastName" validate:"min=2"`
	Email      string `form:"email" validate:"required,email"`
	Phone      string `form:"phone" validate:"omitempty,phone"`
	Address    string `form:"address" validate:"min=5"`
	City       string `form:"city" validate:"min=2"`
	PostalCode string `form:"postalCode" validate:"postalcode"`
	Country    string `form:"country" validate:"min=2"`
}

// ProfileFrom pre-fills the edit form from a customer.
func ProfileFrom(c domain.Customer) Profile {
	return Profile{
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		City:       c.City,
		PostalCode: c.PostalCode,
		Country:    c.Country,
	}
}

// ParseProfile reads the profile edit form.
func ParseProfile(r *http.Request) Profile {
	return Profile{
		FirstName:  Value(r, "firstName"),
		LastName:   Value(r, "lastName"),
		Email:      Value(r, "email"),
		Phone:      Value(r, "phone"),
		Address:    Value(r, "address"),
		City:       Value(r, "city"),
		PostalCode: Value(r, "postalCode"),
		Country:    Value(r, "country"),
	}
}

// Validate checks the profile form.
func (f Profile) Validate() Errors {
	return Validate(f, identityMessages)
}

// Update converts the form into a full patch.
func (f Profile) Update() domain.CustomerUpdate {
	return domain.CustomerUpdate{
		FirstName:  &f.FirstName,
		LastName:   &f.LastName,
		Email:      &f.Email,
		Phone:      &f.Phone,
		Address:    &f.Address,
		City:       &f.City,
		PostalCode: &f.PostalCode,
		Country:    &f.Country,
	}
}

// Package forms decodes and validates the storefront's HTML forms. Messages
// are French, keyed by form field name.
package forms

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	postalCodePattern = regexp.MustCompile(`^\d{5}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3,4}$`)
	phonePattern      = regexp.MustCompile(`^\+?[0-9 .\-]{6,20}$`)
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		mustRegister(v, "postalcode", func(fl validator.FieldLevel) bool {
			return postalCodePattern.MatchString(fl.Field().String())
		})
		mustRegister(v, "cardnumber", func(fl validator.FieldLevel) bool {
			digits := CardDigits(fl.Field().String())
			return len(digits) >= 13 && len(digits) <= 19
		})
		mustRegister(v, "expiry", func(fl validator.FieldLevel) bool {
			return expiryPattern.MatchString(fl.Field().String())
		})
		mustRegister(v, "cvv", func(fl validator.FieldLevel) bool {
			return cvvPattern.MatchString(fl.Field().String())
		})
		mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Errors maps a form field name to its message.
type Errors map[string]string

// Has reports whether field failed validation.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Get returns the message for field.
func (e Errors) Get(field string) string {
	return e[field]
}

// Empty reports whether no field failed.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Validate checks form and returns the per-field messages. The messages
// table is the form's own; unknown tags fall back to a generic message.
func Validate(form any, messages map[string]string) Errors {
	err := instance().Struct(form)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return Errors{"": "Formulaire invalide."}
	}
	out := Errors{}
	for _, fieldErr := range invalid {
		field := fieldErr.Field()
		if out.Has(field) {
			continue
		}
		if msg, ok := messages[field+"."+fieldErr.Tag()]; ok {
			out[field] = msg
			continue
		}
		if msg, ok := messages[field]; ok {
			out[field] = msg
			continue
		}
		out[field] = "Champ invalide."
	}
	return out
}

// Value returns the trimmed form value of name. ParseForm must have run.
func Value(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

// CardDigits strips everything but digits from a card number.
func CardDigits(raw string) string {
	var b strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

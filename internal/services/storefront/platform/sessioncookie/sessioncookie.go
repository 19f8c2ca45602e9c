// Package sessioncookie manages the long-lived browser client id cookie that
// keys per-client state.
package sessioncookie

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/payetonkawa/storefront/internal/services/storefront/platform/requestmeta"
)

// Name is the client id cookie name.
const Name = "sf_client"

// MaxAge keeps the client id for a year of inactivity.
const MaxAge = 365 * 24 * time.Hour

// Read returns the client id cookie when present and well formed.
func Read(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(Name)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(strings.TrimSpace(cookie.Value))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// Ensure returns the request's client id, minting and setting a new one when
// the cookie is missing or malformed.
func Ensure(w http.ResponseWriter, r *http.Request, policy requestmeta.Policy) (string, bool) {
	if id, ok := Read(r); ok {
		return id, false
	}
	id := uuid.NewString()
	Write(w, r, id, policy)
	return id, true
}

// Write sets the client id cookie.
func Write(w http.ResponseWriter, r *http.Request, clientID string, policy requestmeta.Policy) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    strings.TrimSpace(clientID),
		Path:     "/",
		MaxAge:   int(MaxAge / time.Second),
		HttpOnly: true,
		Secure:   policy.IsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

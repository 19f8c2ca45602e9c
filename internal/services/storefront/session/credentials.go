package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials holds the bearer token attached to outgoing backend requests.
// It is armed on login or reconciliation and disarmed on logout.
type Credentials struct {
	mu    sync.RWMutex
	token string
}

// Arm sets the token sent with subsequent requests.
func (c *Credentials) Arm(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Disarm stops attaching a token.
func (c *Credentials) Disarm() {
	c.Arm("")
}

// Token returns the armed token, or "" when disarmed.
func (c *Credentials) Token() string {
	if c == nil {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Armed reports whether a token is set.
func (c *Credentials) Armed() bool {
	return c.Token() != ""
}

// TokenExpired reports whether token is a JWT whose exp claim lies at or
// before now. Tokens that are not JWTs, or carry no exp, never expire here;
// the backend remains the authority and answers 401.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
)

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown", StatusUnknown.String())
	assert.Equal(t, "signed_out", StatusSignedOut.String())
	assert.Equal(t, "signed_in", StatusSignedIn.String())
}

func TestSessionWithUserRequiresUser(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Session{}, Session{}.WithUser(domain.User{ID: 3}))

	s := SignedIn(domain.User{ID: 3, Email: "x@example.com"})
	updated := s.WithUser(domain.User{Role: domain.RoleAdmin})
	assert.Equal(t, domain.Role(""), s.User.Role)
	assert.Equal(t, domain.RoleAdmin, updated.User.Role)
	assert.Equal(t, StatusSignedIn, updated.Status())
}

func TestCredentials(t *testing.T) {
	t.Parallel()

	var creds Credentials
	assert.False(t, creds.Armed())
	creds.Arm("abc")
	assert.Equal(t, "abc", creds.Token())
	creds.Disarm()
	assert.False(t, creds.Armed())

	var nilCreds *Credentials
	assert.Empty(t, nilCreds.Token())
}

func TestTokenExpired(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, TokenExpired("not-a-jwt", now))
	assert.True(t, TokenExpired(signedToken(t, now), now))
	assert.True(t, TokenExpired(signedToken(t, now.Add(-time.Second)), now))
	assert.False(t, TokenExpired(signedToken(t, now.Add(time.Second)), now))
}

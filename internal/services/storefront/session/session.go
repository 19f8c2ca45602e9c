// Package session tracks who a browser client is signed in as, keeps the
// durable authenticated flag in step with the stored credential, and arms the
// credential holder used on outgoing backend calls.
package session

import (
	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
)

// Status is the externally visible session state. StatusUnknown is reported
// until reconciliation has finished for the client.
type Status int

const (
	StatusUnknown Status = iota
	StatusSignedOut
	StatusSignedIn
)

func (s Status) String() string {
	switch s {
	case StatusSignedOut:
		return "signed_out"
	case StatusSignedIn:
		return "signed_in"
	default:
		return "unknown"
	}
}

// Session is the in-memory session value. Only Authenticated is persisted.
type Session struct {
	User          *domain.User
	Authenticated bool
}

// SignedIn returns the session after a successful login.
func SignedIn(user domain.User) Session {
	return Session{User: &user, Authenticated: true}
}

// WithUser shallow-merges patch into the current user. Without a user the
// session is returned unchanged.
func (s Session) WithUser(patch domain.User) Session {
	if s.User == nil {
		return s
	}
	merged := s.User.Merge(patch)
	s.User = &merged
	return s
}

// Status derives the visible status of a reconciled session.
func (s Session) Status() Status {
	if s.Authenticated {
		return StatusSignedIn
	}
	return StatusSignedOut
}

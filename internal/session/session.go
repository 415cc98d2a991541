// Package session holds the explicit per-login identity object and its
// server-side revocation record.
package session

import (
	"time"

	"github.com/spec-kit/smart-resolve/internal/domain"
)

// User is the authenticated identity, independent of its profile.
type User struct {
	ID    string
	Email string
}

// Session is the identity context passed by reference to everything that
// needs to know who is calling. Profile resolution lags User resolution, so a
// session with a User and a nil Profile is normal and means "profile loading".
type Session struct {
	ID        string
	User      *User
	Profile   *domain.Profile
	IsLoading bool
	ExpiresAt time.Time
}

// Anonymous returns a resolved session with no user.
func Anonymous() *Session {
	return &Session{}
}

// Loading returns a session whose identity is not known yet.
func Loading() *Session {
	return &Session{IsLoading: true}
}

// Authenticated reports whether a user is attached.
func (s *Session) Authenticated() bool {
	return s != nil && !s.IsLoading && s.User != nil
}

// UserID returns the user id or an empty string.
func (s *Session) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}

package dto

import (
	"time"

	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/session"
)

// SignUpRequest payload for new users.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest payload for profile edits.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse is the authenticated identity.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ProfileResponse is the application-level identity record.
type ProfileResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// SessionResponse is the {user, profile, isLoading} triple.
type SessionResponse struct {
	User      *UserResponse    `json:"user"`
	Profile   *ProfileResponse `json:"profile"`
	IsLoading bool             `json:"isLoading"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   SessionResponse `json:"session"`
}

// Profile converts a profile; nil stays nil.
func Profile(p *domain.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}
	return &ProfileResponse{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role, CreatedAt: p.CreatedAt}
}

// Session converts a session.
func Session(sess *session.Session) SessionResponse {
	resp := SessionResponse{IsLoading: sess.IsLoading, Profile: Profile(sess.Profile)}
	if sess.User != nil {
		resp.User = &UserResponse{ID: sess.User.ID, Email: sess.User.Email}
	}
	return resp
}

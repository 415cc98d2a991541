// Package guard decides what a caller may see, from session state and role.
package guard

import (
	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/session"
)

// Decision is the outcome of evaluating a guarded route.
type Decision string

const (
	Loading        Decision = "loading"
	RedirectLogin  Decision = "redirect_login"
	ProfileLoading Decision = "profile_loading"
	RedirectHome   Decision = "redirect_home"
	Render         Decision = "render"
)

// Entry points used by redirects.
const (
	LoginPath          = "/login"
	HomePath           = "/home"
	AdminDashboardPath = "/admin/dashboard"
)

// State is everything a guard decision depends on.
type State struct {
	User      *session.User
	Profile   *domain.Profile
	IsLoading bool
	AdminOnly bool
}

// StateOf captures a session for a route.
func StateOf(sess *session.Session, adminOnly bool) State {
	if sess == nil {
		return State{AdminOnly: adminOnly}
	}
	return State{User: sess.User, Profile: sess.Profile, IsLoading: sess.IsLoading, AdminOnly: adminOnly}
}

// Evaluate is pure. Loading wins over everything, then a missing user, then a
// missing profile; only with a profile is the admin check applied.
func Evaluate(s State) Decision {
	switch {
	case s.IsLoading:
		return Loading
	case s.User == nil:
		return RedirectLogin
	case s.Profile == nil:
		return ProfileLoading
	case s.AdminOnly && !auth.ProfileAllows(s.Profile, auth.CapAdminConsole):
		return RedirectHome
	default:
		return Render
	}
}

// RedirectTarget returns where a redirect decision sends the caller.
func RedirectTarget(d Decision) string {
	switch d {
	case RedirectLogin:
		return LoginPath
	case RedirectHome:
		return HomePath
	}
	return ""
}

// LandingPath is where a signed-in user goes instead of the login page. It is
// empty while identity or profile is still unresolved, or when signed out.
func LandingPath(s State) string {
	if s.IsLoading || s.User == nil || s.Profile == nil {
		return ""
	}
	if auth.ProfileAllows(s.Profile, auth.CapAdminConsole) {
		return AdminDashboardPath
	}
	return HomePath
}

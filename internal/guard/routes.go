package guard

import (
	"strings"

	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/domain"
)

// Access classifies a page.
type Access string

const (
	AccessAuthEntry Access = "auth_entry"
	AccessUser      Access = "user"
	AccessAdmin     Access = "admin"
)

// Route is one page of the client application.
type Route struct {
	Pattern string
	Access  Access
}

// AdminOnly reports whether the route needs the admin role.
func (r Route) AdminOnly() bool {
	return r.Access == AccessAdmin
}

var routes = []Route{
	{Pattern: "/login", Access: AccessAuthEntry},
	{Pattern: "/home", Access: AccessUser},
	{Pattern: "/user/dashboard", Access: AccessUser},
	{Pattern: "/user/tickets/:id", Access: AccessUser},
	{Pattern: "/profile", Access: AccessUser},
	{Pattern: "/admin/dashboard", Access: AccessAdmin},
	{Pattern: "/admin/tickets", Access: AccessAdmin},
	{Pattern: "/admin/tickets/:id", Access: AccessAdmin},
	{Pattern: "/admin/analytics", Access: AccessAdmin},
}

// Routes returns the page table.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Match is the result of resolving a path against the page table.
type Match struct {
	Route    Route
	Params   map[string]string
	Redirect string
	NotFound bool
}

// Resolve maps a path to its page. The root redirects to the login entry
// point and anything unknown is not found.
func Resolve(path string) Match {
	path = normalizePath(path)
	if path == "/" {
		return Match{Redirect: LoginPath}
	}
	for _, r := range routes {
		if params, ok := matchPattern(r.Pattern, path); ok {
			return Match{Route: r, Params: params}
		}
	}
	return Match{NotFound: true}
}

func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func matchPattern(pattern, path string) (map[string]string, bool) {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return nil, false
	}
	params := map[string]string{}
	for i, seg := range want {
		if strings.HasPrefix(seg, ":") {
			if got[i] == "" {
				return nil, false
			}
			params[seg[1:]] = got[i]
			continue
		}
		if seg != got[i] {
			return nil, false
		}
	}
	return params, true
}

// NavItem is one entry of the navigation bar.
type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var (
	userNav = []NavItem{
		{Label: "Home", Path: "/home"},
		{Label: "Tickets", Path: "/user/dashboard"},
		{Label: "Profile", Path: "/profile"},
	}
	adminNav = []NavItem{
		{Label: "Dashboard", Path: "/admin/dashboard"},
		{Label: "Tickets", Path: "/admin/tickets"},
		{Label: "Analytics", Path: "/admin/analytics"},
		{Label: "Profile", Path: "/profile"},
	}
)

// Navigation returns the navigation surface for a profile.
func Navigation(profile *domain.Profile) []NavItem {
	items := userNav
	if auth.ProfileAllows(profile, auth.CapAdminConsole) {
		items = adminNav
	}
	out := make([]NavItem, len(items))
	copy(out, items)
	return out
}

// Page is the full decision for a client path.
type Page struct {
	Path     string            `json:"path"`
	Decision Decision          `json:"decision"`
	Redirect string            `json:"redirect,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
}

// NotFoundDecision marks an unknown page.
const NotFoundDecision Decision = "not_found"

// EvaluatePath resolves path and applies the guard for the session state.
func EvaluatePath(path string, s State) Page {
	m := Resolve(path)
	page := Page{Path: normalizePath(path), Params: m.Params}

	switch {
	case m.Redirect != "":
		page.Decision = RedirectLogin
		page.Redirect = m.Redirect
	case m.NotFound:
		page.Decision = NotFoundDecision
	case m.Route.Access == AccessAuthEntry:
		switch {
		case s.IsLoading:
			page.Decision = Loading
		case LandingPath(s) != "":
			page.Decision = RedirectHome
			page.Redirect = LandingPath(s)
		default:
			page.Decision = Render
		}
	default:
		s.AdminOnly = m.Route.AdminOnly()
		page.Decision = Evaluate(s)
		page.Redirect = RedirectTarget(page.Decision)
	}
	return page
}

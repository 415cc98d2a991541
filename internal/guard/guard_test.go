package guard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/session"
	apperrors "github.com/spec-kit/smart-resolve/pkg/util"
)

var (
	someUser  = &session.User{ID: "u1", Email: "u1@example.com"}
	userProf  = &domain.Profile{ID: "u1", Role: domain.RoleUser}
	adminProf = &domain.Profile{ID: "u1", Role: domain.RoleAdmin}
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  Decision
	}{
		{name: "loading beats everything", state: State{IsLoading: true, User: someUser, Profile: adminProf, AdminOnly: true}, want: Loading},
		{name: "loading without user", state: State{IsLoading: true}, want: Loading},
		{name: "no user", state: State{}, want: RedirectLogin},
		{name: "no user admin route", state: State{AdminOnly: true}, want: RedirectLogin},
		{name: "profile pending", state: State{User: someUser}, want: ProfileLoading},
		{name: "profile pending admin route", state: State{User: someUser, AdminOnly: true}, want: ProfileLoading},
		{name: "user on admin route", state: State{User: someUser, Profile: userProf, AdminOnly: true}, want: RedirectHome},
		{name: "user on user route", state: State{User: someUser, Profile: userProf}, want: Render},
		{name: "admin on admin route", state: State{User: someUser, Profile: adminProf, AdminOnly: true}, want: Render},
		{name: "unknown role on admin route", state: State{User: someUser, Profile: &domain.Profile{Role: "owner"}, AdminOnly: true}, want: RedirectHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.state))
		})
	}
}

func TestResolve(t *testing.T) {
	m := Resolve("/")
	assert.Equal(t, LoginPath, m.Redirect)

	m = Resolve("/admin/tickets/abc-123/")
	require.False(t, m.NotFound)
	assert.True(t, m.Route.AdminOnly())
	assert.Equal(t, "abc-123", m.Params["id"])

	m = Resolve("/user/tickets/9?tab=history")
	assert.Equal(t, AccessUser, m.Route.Access)
	assert.Equal(t, "9", m.Params["id"])

	assert.True(t, Resolve("/nope").NotFound)
	assert.True(t, Resolve("/user/tickets").NotFound)
}

func TestEvaluatePath(t *testing.T) {
	signedIn := State{User: someUser, Profile: userProf}
	admin := State{User: someUser, Profile: adminProf}

	assert.Equal(t, Page{Path: "/", Decision: RedirectLogin, Redirect: LoginPath}, EvaluatePath("/", admin))
	assert.Equal(t, NotFoundDecision, EvaluatePath("/missing", admin).Decision)

	login := EvaluatePath("/login", admin)
	assert.Equal(t, RedirectHome, login.Decision)
	assert.Equal(t, AdminDashboardPath, login.Redirect)
	assert.Equal(t, HomePath, EvaluatePath("/login", signedIn).Redirect)
	assert.Equal(t, Render, EvaluatePath("/login", State{}).Decision)
	assert.Equal(t, Render, EvaluatePath("/login", State{User: someUser}).Decision)
	assert.Equal(t, Loading, EvaluatePath("/login", State{IsLoading: true}).Decision)

	page := EvaluatePath("/admin/analytics", signedIn)
	assert.Equal(t, RedirectHome, page.Decision)
	assert.Equal(t, HomePath, page.Redirect)

	page = EvaluatePath("/profile", State{})
	assert.Equal(t, RedirectLogin, page.Decision)
	assert.Equal(t, LoginPath, page.Redirect)

	assert.Equal(t, ProfileLoading, EvaluatePath("/admin/dashboard", State{User: someUser}).Decision)
}

func TestNavigation(t *testing.T) {
	assert.Len(t, Navigation(userProf), 3)
	nav := Navigation(adminProf)
	require.Len(t, nav, 4)
	assert.Equal(t, "/admin/analytics", nav[2].Path)
	assert.Len(t, Navigation(nil), 3)
}

type staticResolver struct {
	sess *session.Session
}

func (r staticResolver) Resolve(context.Context, string) (*session.Session, error) {
	if r.sess == nil {
		return nil, errors.New("invalid token")
	}
	return r.sess, nil
}

func apperrorsStatus(err error) int {
	return apperrors.ToDomainError(err).HTTPStatus
}

func guardedApp(sess *session.Session, adminOnly bool) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperrorsStatus(err)).SendString(err.Error())
		},
	})
	app.Use(auth.NewAuthMiddleware(staticResolver{sess}).Handle)
	app.Get("/x", Require(adminOnly), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestRequire(t *testing.T) {
	tests := []struct {
		name       string
		sess       *session.Session
		adminOnly  bool
		wantStatus int
		retry      bool
	}{
		{name: "anonymous", sess: nil, wantStatus: http.StatusUnauthorized},
		{name: "loading", sess: session.Loading(), wantStatus: http.StatusServiceUnavailable, retry: true},
		{name: "profile loading", sess: &session.Session{ID: "s", User: someUser}, adminOnly: true, wantStatus: http.StatusServiceUnavailable, retry: true},
		{name: "user on admin", sess: &session.Session{ID: "s", User: someUser, Profile: userProf}, adminOnly: true, wantStatus: http.StatusForbidden},
		{name: "user on user", sess: &session.Session{ID: "s", User: someUser, Profile: userProf}, wantStatus: http.StatusNoContent},
		{name: "admin on admin", sess: &session.Session{ID: "s", User: someUser, Profile: adminProf}, adminOnly: true, wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := guardedApp(tt.sess, tt.adminOnly)
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set(fiber.HeaderAuthorization, "Bearer token")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.retry {
				assert.Equal(t, "1", resp.Header.Get(fiber.HeaderRetryAfter))
			}
		})
	}
}

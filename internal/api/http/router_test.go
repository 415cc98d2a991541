package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/smart-resolve/internal/api/http/handlers"
	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/classifier"
	"github.com/spec-kit/smart-resolve/internal/config"
	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/notify"
	"github.com/spec-kit/smart-resolve/internal/observability"
	"github.com/spec-kit/smart-resolve/internal/repository"
	"github.com/spec-kit/smart-resolve/internal/service"
	"github.com/spec-kit/smart-resolve/internal/session"
	"github.com/spec-kit/smart-resolve/internal/workspace"
	apperrors "github.com/spec-kit/smart-resolve/pkg/util"
)

// tokens maps bearer tokens to sessions.
type tokens map[string]*session.Session

func (t tokens) Resolve(_ context.Context, token string) (*session.Session, error) {
	if sess, ok := t[token]; ok {
		return sess, nil
	}
	return nil, errors.New("invalid")
}

type stubIdentity struct{}

func (stubIdentity) SignUp(_ context.Context, email, password, name string) (*service.AuthResult, error) {
	if len(password) < 6 {
		return nil, apperrors.NewValidationError("password too short", nil)
	}
	sess := &session.Session{ID: "new", User: &session.User{ID: "u9", Email: email}, Profile: &domain.Profile{ID: "u9", Name: name, Role: domain.RoleUser}}
	return &service.AuthResult{Session: sess, Token: "tok-new", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (stubIdentity) Login(context.Context, string, string) (*service.AuthResult, error) {
	return nil, apperrors.NewUnauthorized("Invalid login credentials")
}

func (stubIdentity) Logout(context.Context, *session.Session) error { return nil }

func (stubIdentity) UpdateProfile(_ context.Context, sess *session.Session, name, email string) (*domain.Profile, error) {
	p := *sess.Profile
	p.Name, p.Email = name, email
	return &p, nil
}

type memTickets struct {
	mu      sync.Mutex
	tickets []domain.Ticket
	lookups int
}

func (m *memTickets) Create(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = time.Date(2024, 1, 1, 0, len(m.tickets), 0, 0, time.UTC)
	t.UpdatedAt = t.CreatedAt
	m.tickets = append(m.tickets, *t)
	return nil
}

func (m *memTickets) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tickets {
		if m.tickets[i].ID == id {
			m.tickets[i].Status = status
			m.tickets[i].UpdatedAt = m.tickets[i].CreatedAt.Add(time.Hour)
			return m.tickets[i].UpdatedAt, nil
		}
	}
	return time.Time{}, apperrors.NewNotFound("ticket", nil)
}

func (m *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	for _, t := range m.tickets {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, apperrors.NewNotFound("ticket", nil)
}

func (m *memTickets) List(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Ticket{}
	for _, t := range m.tickets {
		if f.UserID == nil || *f.UserID == t.UserID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type downClassifier struct{}

func (downClassifier) GenerateResponse(context.Context, []classifier.Message) (string, error) {
	return "", &classifier.GenerationError{Status: 503}
}

func (downClassifier) CategorizeTicket(_ context.Context, d string) domain.Classification {
	return classifier.Fallback(d)
}

func (downClassifier) CheckHealth(context.Context) bool { return false }

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }

type noNotices struct{}

func (noNotices) Drain(context.Context, string) ([]notify.Notice, error) {
	return []notify.Notice{{Level: notify.LevelSuccess, Title: "Success", Message: "Ticket created successfully"}}, nil
}

func newTestApp(t *testing.T, redisErr error) (*fiber.App, *memTickets) {
	t.Helper()
	repo := &memTickets{}
	registry := workspace.NewRegistry(config.ClassifierConfig{HistoryWindow: 5}, workspace.Dependencies{
		Classifier: downClassifier{},
		TicketRepo: repo,
	})
	sessions := tokens{
		"user":    {ID: "s-user", User: &session.User{ID: "u1"}, Profile: &domain.Profile{ID: "u1", Name: "Uma", Role: domain.RoleUser}},
		"other":   {ID: "s-other", User: &session.User{ID: "u2"}, Profile: &domain.Profile{ID: "u2", Role: domain.RoleUser}},
		"admin":   {ID: "s-admin", User: &session.User{ID: "a1"}, Profile: &domain.Profile{ID: "a1", Role: domain.RoleAdmin}},
		"pending": {ID: "s-pending", User: &session.User{ID: "u3"}},
		"loading": session.Loading(),
	}

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("smart-resolve", "test", okPinger{}, okPinger{err: redisErr}, downClassifier{}),
		Auth:           handlers.NewAuthHandler(stubIdentity{}),
		Chat:           handlers.NewChatHandler(registry),
		Tickets:        handlers.NewTicketsHandler(registry),
		Admin:          handlers.NewAdminHandler(registry),
		Profile:        handlers.NewProfileHandler(stubIdentity{}),
		Notifications:  handlers.NewNotificationsHandler(noNotices{}),
		AuthMiddleware: auth.NewAuthMiddleware(sessions),
		Metrics:        metrics,
	})
	return app, repo
}

func do(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestRouter_GuardMapping(t *testing.T) {
	app, _ := newTestApp(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{name: "anonymous chat", method: nethttp.MethodGet, path: "/api/chat", want: nethttp.StatusUnauthorized},
		{name: "loading session", method: nethttp.MethodGet, path: "/api/tickets", token: "loading", want: nethttp.StatusServiceUnavailable},
		{name: "profile pending", method: nethttp.MethodGet, path: "/api/tickets", token: "pending", want: nethttp.StatusServiceUnavailable},
		{name: "user on admin", method: nethttp.MethodGet, path: "/api/admin/analytics", token: "user", want: nethttp.StatusForbidden},
		{name: "user status update", method: nethttp.MethodPatch, path: "/api/tickets/t-1/status", token: "user", want: nethttp.StatusForbidden},
		{name: "admin analytics", method: nethttp.MethodGet, path: "/api/admin/analytics", token: "admin", want: nethttp.StatusOK},
		{name: "session is optional", method: nethttp.MethodGet, path: "/api/auth/session", want: nethttp.StatusOK},
		{name: "unknown route", method: nethttp.MethodGet, path: "/api/nope", token: "user", want: nethttp.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := do(t, app, tt.method, tt.path, tt.token, "")
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestRouter_ChatEscalatesWhenServiceDown(t *testing.T) {
	app, repo := newTestApp(t, nil)

	status, body := do(t, app, nethttp.MethodGet, "/api/chat", "user", "")
	require.Equal(t, nethttp.StatusOK, status)
	chat := body["data"].(map[string]any)
	assert.Equal(t, "offline", chat["service_health"])
	assert.Len(t, chat["messages"], 1)

	status, body = do(t, app, nethttp.MethodPost, "/api/chat/messages", "user", `{"content":"My payment failed and I'm getting an error"}`)
	require.Equal(t, nethttp.StatusCreated, status)
	appended := body["data"].(map[string]any)["appended"].([]any)
	require.Len(t, appended, 3)

	require.Len(t, repo.tickets, 1)
	ticket := repo.tickets[0]
	assert.Equal(t, "u1", ticket.UserID)
	assert.Equal(t, domain.TicketCategoryBilling, ticket.Category)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.TicketStatusRegistered, ticket.Status)
	assert.Equal(t, "Billing Support", ticket.Team())

	status, _ = do(t, app, nethttp.MethodPost, "/api/chat/messages", "user", `{"content":"   "}`)
	assert.Equal(t, nethttp.StatusBadRequest, status)
}

func TestRouter_TicketScopingAndStatus(t *testing.T) {
	app, repo := newTestApp(t, nil)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.Ticket{UserID: "u1", Description: "mine", Category: domain.TicketCategoryTechnical, Priority: domain.TicketPriorityLow, Status: domain.TicketStatusRegistered}))
	require.NoError(t, repo.Create(ctx, &domain.Ticket{UserID: "u2", Description: "theirs", Category: domain.TicketCategoryBilling, Priority: domain.TicketPriorityUrgent, Status: domain.TicketStatusRegistered}))

	mine, theirs := repo.tickets[0].ID, repo.tickets[1].ID

	status, body := do(t, app, nethttp.MethodGet, "/api/tickets", "user", "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = do(t, app, nethttp.MethodGet, "/api/tickets/"+theirs, "user", "")
	assert.Equal(t, nethttp.StatusNotFound, status)

	status, body = do(t, app, nethttp.MethodGet, "/api/tickets?category=billing", "admin", "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = do(t, app, nethttp.MethodPatch, "/api/tickets/"+mine+"/status", "admin", `{"status":"resolved"}`)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "resolved", body["data"].(map[string]any)["status"])

	status, body = do(t, app, nethttp.MethodPatch, "/api/tickets/"+mine+"/status", "admin", `{"status":"closed"}`)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]any)["code"])

	status, body = do(t, app, nethttp.MethodGet, "/api/admin/dashboard", "admin", "")
	require.Equal(t, nethttp.StatusOK, status)
	stats := body["data"].(map[string]any)["stats"].(map[string]any)
	assert.EqualValues(t, 2, stats["total"])
	assert.EqualValues(t, 50, stats["resolution_rate"])
}

func TestRouter_AuthAndNavigation(t *testing.T) {
	app, _ := newTestApp(t, nil)

	status, body := do(t, app, nethttp.MethodPost, "/api/auth/signup", "", `{"email":"a@example.com","password":"secret1","name":"Ada"}`)
	require.Equal(t, nethttp.StatusCreated, status)
	assert.Equal(t, "tok-new", body["data"].(map[string]any)["token"])

	status, _ = do(t, app, nethttp.MethodPost, "/api/auth/login", "", `{"email":"a@example.com","password":"nope"}`)
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	status, body = do(t, app, nethttp.MethodGet, "/api/auth/session", "loading", "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, true, body["data"].(map[string]any)["isLoading"])

	_, body = do(t, app, nethttp.MethodGet, "/api/navigation?path=/login", "admin", "")
	page := body["data"].(map[string]any)["page"].(map[string]any)
	assert.Equal(t, "/admin/dashboard", page["redirect"])
	assert.Len(t, body["data"].(map[string]any)["items"], 4)

	_, body = do(t, app, nethttp.MethodGet, "/api/navigation?path=/admin/tickets", "pending", "")
	page = body["data"].(map[string]any)["page"].(map[string]any)
	assert.Equal(t, "profile_loading", page["decision"])

	status, body = do(t, app, nethttp.MethodPatch, "/api/profile", "user", `{"name":"Uma B","email":"uma@example.com"}`)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "Uma B", body["data"].(map[string]any)["name"])

	status, body = do(t, app, nethttp.MethodGet, "/api/notifications", "user", "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = do(t, app, nethttp.MethodPost, "/api/auth/logout", "user", "")
	assert.Equal(t, nethttp.StatusNoContent, status)
}

func TestRouter_Health(t *testing.T) {
	app, _ := newTestApp(t, nil)
	status, body := do(t, app, nethttp.MethodGet, "/health/ready", "", "")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "unavailable", body["dependencies"].(map[string]any)["classifier"])

	down, _ := newTestApp(t, errors.New("redis down"))
	status, _ = do(t, down, nethttp.MethodGet, "/health/ready", "", "")
	assert.Equal(t, nethttp.StatusServiceUnavailable, status)

	status, _ = do(t, app, nethttp.MethodGet, "/metrics", "", "")
	assert.Equal(t, nethttp.StatusOK, status)
}

func TestRouter_MalformedTicketIDIsNotFound(t *testing.T) {
	app, repo := newTestApp(t, nil)

	status, body := do(t, app, nethttp.MethodGet, "/api/tickets/not-a-uuid", "user", "")
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])

	status, body = do(t, app, nethttp.MethodPatch, "/api/tickets/not-a-uuid/status", "admin", `{"status":"resolved"}`)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])

	assert.Zero(t, repo.lookups)
}

package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/smart-resolve/internal/session"
)

const sessionKey = "auth_session"

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// AuthMiddleware attaches the caller's session to the request.
type AuthMiddleware struct {
	sessions SessionResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Handle resolves the bearer token, if any. It never rejects a request: a
// missing or invalid token yields an anonymous session and route guards decide.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	sess := session.Anonymous()
	if token, ok := bearerToken(c.Get(fiber.HeaderAuthorization)); ok {
		resolved, err := m.sessions.Resolve(c.UserContext(), token)
		if err == nil && resolved != nil {
			sess = resolved
		}
	}
	c.Locals(sessionKey, sess)
	return c.Next()
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// SessionFromContext retrieves the request's session. It is anonymous when the
// middleware did not run.
func SessionFromContext(c *fiber.Ctx) *session.Session {
	if sess, ok := c.Locals(sessionKey).(*session.Session); ok && sess != nil {
		return sess
	}
	return session.Anonymous()
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/smart-resolve/internal/api/dto"
	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/guard"
	"github.com/spec-kit/smart-resolve/internal/service"
	"github.com/spec-kit/smart-resolve/internal/session"
	apperrors "github.com/spec-kit/smart-resolve/pkg/util"
)

// IdentityProvider is the subset of the auth service the HTTP layer uses.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, name string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Logout(ctx context.Context, sess *session.Session) error
	UpdateProfile(ctx context.Context, sess *session.Session, name, email string) (*domain.Profile, error)
}

// AuthHandler exposes sign-up, login, logout and the session triple.
type AuthHandler struct {
	identity IdentityProvider
}

// NewAuthHandler constructs handler.
func NewAuthHandler(identity IdentityProvider) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	res, err := h.identity.SignUp(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authResponse(res)})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	res, err := h.identity.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(res)})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.identity.Logout(c.UserContext(), auth.SessionFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.Session(auth.SessionFromContext(c))})
}

// Navigation handles GET /api/navigation?path=.
func (h *AuthHandler) Navigation(c *fiber.Ctx) error {
	sess := auth.SessionFromContext(c)
	page := guard.EvaluatePath(c.Query("path", "/"), guard.StateOf(sess, false))

	resp := fiber.Map{"page": page}
	if sess.Authenticated() && sess.Profile != nil {
		resp["items"] = guard.Navigation(sess.Profile)
	} else {
		resp["items"] = []guard.NavItem{}
	}
	return c.JSON(fiber.Map{"data": resp})
}

func authResponse(res *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, Session: dto.Session(res.Session)}
}

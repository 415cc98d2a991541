package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/smart-resolve/internal/api/dto"
	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/notify"
	apperrors "github.com/spec-kit/smart-resolve/pkg/util"
)

// ProfileHandler serves the profile page.
type ProfileHandler struct {
	identity IdentityProvider
}

// NewProfileHandler constructs handler.
func NewProfileHandler(identity IdentityProvider) *ProfileHandler {
	return &ProfileHandler{identity: identity}
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.Profile(auth.SessionFromContext(c).Profile)})
}

// Update handles PATCH /api/profile.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	profile, err := h.identity.UpdateProfile(c.UserContext(), auth.SessionFromContext(c), req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.Profile(profile)})
}

// NoticeDrainer hands out and clears a session's queued notices.
type NoticeDrainer interface {
	Drain(ctx context.Context, sessionID string) ([]notify.Notice, error)
}

// NotificationsHandler serves the notice channel.
type NotificationsHandler struct {
	notices NoticeDrainer
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notices NoticeDrainer) *NotificationsHandler {
	return &NotificationsHandler{notices: notices}
}

// Drain handles GET /api/notifications.
func (h *NotificationsHandler) Drain(c *fiber.Ctx) error {
	notices, err := h.notices.Drain(c.UserContext(), auth.SessionFromContext(c).ID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": notices})
}

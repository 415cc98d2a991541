package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/smart-resolve/internal/api/dto"
	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/conversation"
	"github.com/spec-kit/smart-resolve/internal/session"
	"github.com/spec-kit/smart-resolve/internal/workspace"
	apperrors "github.com/spec-kit/smart-resolve/pkg/util"
)

// Workspaces hands out the per-session state.
type Workspaces interface {
	For(sess *session.Session) *workspace.Workspace
}

// ChatHandler exposes the session's conversation.
type ChatHandler struct {
	workspaces Workspaces
}

// NewChatHandler constructs handler.
func NewChatHandler(workspaces Workspaces) *ChatHandler {
	return &ChatHandler{workspaces: workspaces}
}

// Get handles GET /api/chat. It re-probes the assistant service each time.
func (h *ChatHandler) Get(c *fiber.Ctx) error {
	engine := h.workspaces.For(auth.SessionFromContext(c)).Conversation
	engine.RefreshHealth(c.UserContext())
	return c.JSON(fiber.Map{"data": chatState(engine)})
}

// Send handles POST /api/chat/messages.
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	engine := h.workspaces.For(auth.SessionFromContext(c)).Conversation
	appended, err := engine.Submit(c.UserContext(), req.Content)
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		return apperrors.NewValidationError("content required", nil)
	case errors.Is(err, conversation.ErrBusy):
		return apperrors.NewConflict("a message is already being processed", nil)
	case errors.Is(err, conversation.ErrClosed):
		return apperrors.NewConflict("conversation closed", nil)
	case err != nil:
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"appended": dto.ChatMessages(appended),
		"chat":     chatState(engine),
	}})
}

func chatState(engine *conversation.Engine) dto.ChatResponse {
	return dto.ChatResponse{
		Messages:       dto.ChatMessages(engine.History()),
		ServiceHealth:  engine.ServiceHealth(),
		IsLoading:      engine.Busy(),
		CreatingTicket: engine.CreatingTicket(),
	}
}

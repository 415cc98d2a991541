package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/smart-resolve/internal/api/dto"
	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/service"
	apperrors "github.com/spec-kit/smart-resolve/pkg/util"
)

// TicketsHandler manages ticket endpoints for users and admins.
type TicketsHandler struct {
	workspaces Workspaces
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(workspaces Workspaces) *TicketsHandler {
	return &TicketsHandler{workspaces: workspaces}
}

// ListTickets GET /api/tickets. Users see their own tickets; callers allowed
// to view all tickets see everything, narrowed by the dashboard filters.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	sess := auth.SessionFromContext(c)
	store := h.workspaces.For(sess).Tickets

	var owner *string
	if !auth.ProfileAllows(sess.Profile, auth.CapViewAllTickets) {
		uid := sess.UserID()
		owner = &uid
	}
	tickets, err := store.Fetch(c.UserContext(), owner)
	if err != nil {
		return err
	}
	if owner == nil {
		tickets = service.FilterTickets(tickets, parseTicketQuery(c))
	}
	return c.JSON(fiber.Map{"data": dto.Tickets(tickets)})
}

// GetTicket GET /api/tickets/:id. Another user's ticket is reported as not found.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	sess := auth.SessionFromContext(c)
	id, err := ticketID(c)
	if err != nil {
		return err
	}

	ticket, err := h.workspaces.For(sess).Tickets.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if ticket.UserID != sess.UserID() && !auth.ProfileAllows(sess.Profile, auth.CapViewAllTickets) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return c.JSON(fiber.Map{"data": dto.Ticket(ticket)})
}

// UpdateStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	id, err := ticketID(c)
	if err != nil {
		return err
	}
	store := h.workspaces.For(auth.SessionFromContext(c)).Tickets
	if err := store.UpdateStatus(c.UserContext(), id, req.Status); err != nil {
		return err
	}

	ticket, err := store.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.Ticket(ticket)})
}

// ticketID reads the :id param. Ticket ids are UUIDs, so anything else cannot
// name a ticket and is reported as not found.
func ticketID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return id, nil
}

func parseTicketQuery(c *fiber.Ctx) service.TicketQuery {
	return service.TicketQuery{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Category: c.Query("category"),
	}
}

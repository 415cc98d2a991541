package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/smart-resolve/internal/api/dto"
	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/service"
)

// dashboardRecent is how many filtered tickets the dashboard lists.
const dashboardRecent = 5

// AdminHandler serves the admin dashboard and analytics.
type AdminHandler struct {
	workspaces Workspaces
}

// NewAdminHandler constructs handler.
func NewAdminHandler(workspaces Workspaces) *AdminHandler {
	return &AdminHandler{workspaces: workspaces}
}

// Dashboard GET /api/admin/dashboard. Stats cover every ticket; the list is
// the most recent tickets matching the filters.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	tickets, err := h.workspaces.For(auth.SessionFromContext(c)).Tickets.Fetch(c.UserContext(), nil)
	if err != nil {
		return err
	}

	filtered := service.FilterTickets(tickets, parseTicketQuery(c))
	if len(filtered) > dashboardRecent {
		filtered = filtered[:dashboardRecent]
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Stats:   service.ComputeDashboardStats(tickets),
		Tickets: dto.Tickets(filtered),
	}})
}

// Analytics GET /api/admin/analytics.
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	tickets, err := h.workspaces.For(auth.SessionFromContext(c)).Tickets.Fetch(c.UserContext(), nil)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": service.ComputeAnalytics(tickets)})
}

package dto

import (
	"time"

	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/service"
)

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TicketOwner is the belongs-to profile of a ticket.
type TicketOwner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID           string                `json:"id"`
	UserID       string                `json:"user_id"`
	Description  string                `json:"description"`
	Category     domain.TicketCategory `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	AssignedTeam *string               `json:"assigned_team"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Owner        *TicketOwner          `json:"profiles,omitempty"`
}

// DashboardResponse is the admin dashboard payload.
type DashboardResponse struct {
	Stats   service.DashboardStats `json:"stats"`
	Tickets []TicketResponse       `json:"tickets"`
}

// Ticket converts a domain ticket.
func Ticket(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:           t.ID,
		UserID:       t.UserID,
		Description:  t.Description,
		Category:     t.Category,
		Priority:     t.Priority,
		Status:       t.Status,
		AssignedTeam: t.AssignedTeam,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.Owner != nil {
		resp.Owner = &TicketOwner{ID: t.Owner.ID, Name: t.Owner.Name, Email: t.Owner.Email}
	}
	return resp
}

// Tickets converts a list, never returning nil.
func Tickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, Ticket(&tickets[i]))
	}
	return out
}

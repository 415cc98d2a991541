package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusRegistered TicketStatus = "registered"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// Valid reports whether the status is one of the known states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusRegistered, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityUrgent TicketPriority = "urgent"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityLow    TicketPriority = "low"
)

// Valid reports whether the priority is known.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityUrgent, TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return true
	}
	return false
}

// TicketCategory enumerates the support areas a ticket is routed to.
type TicketCategory string

const (
	TicketCategoryBilling   TicketCategory = "billing"
	TicketCategoryTechnical TicketCategory = "technical"
	TicketCategoryService   TicketCategory = "service"
	TicketCategoryGeneral   TicketCategory = "general"
)

// Valid reports whether the category is known.
func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategoryBilling, TicketCategoryTechnical, TicketCategoryService, TicketCategoryGeneral:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	UserID       string
	Description  string
	Category     TicketCategory
	Priority     TicketPriority
	Status       TicketStatus
	AssignedTeam *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Owner is the joined profile of UserID, nil when the join was not loaded.
	Owner *Profile
}

// Team returns the assigned team or an empty string.
func (t Ticket) Team() string {
	if t.AssignedTeam == nil {
		return ""
	}
	return *t.AssignedTeam
}

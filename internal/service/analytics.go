package service

import (
	"math"
	"strings"

	"github.com/spec-kit/smart-resolve/internal/domain"
)

// TicketQuery is the admin dashboard filter. Empty or "all" disables a field.
type TicketQuery struct {
	Search   string
	Status   string
	Priority string
	Category string
}

// FilterTickets returns the tickets matching every set field of q, keeping order.
// Search matches description, category or assigned team, ignoring case.
func FilterTickets(tickets []domain.Ticket, q TicketQuery) []domain.Ticket {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Description), search) &&
			!strings.Contains(strings.ToLower(string(t.Category)), search) &&
			!strings.Contains(strings.ToLower(t.Team()), search) {
			continue
		}
		if !matchesFilter(q.Status, string(t.Status)) ||
			!matchesFilter(q.Priority, string(t.Priority)) ||
			!matchesFilter(q.Category, string(t.Category)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesFilter(filter, value string) bool {
	filter = strings.TrimSpace(filter)
	return filter == "" || strings.EqualFold(filter, "all") || filter == value
}

// DashboardStats summarizes tickets for the admin dashboard.
type DashboardStats struct {
	Total          int `json:"total"`
	Registered     int `json:"registered"`
	InProgress     int `json:"in_progress"`
	Resolved       int `json:"resolved"`
	Urgent         int `json:"urgent"`
	ResolutionRate int `json:"resolution_rate"`
}

// ComputeDashboardStats counts tickets by status; the resolution rate is a
// rounded percentage and zero for an empty list.
func ComputeDashboardStats(tickets []domain.Ticket) DashboardStats {
	stats := DashboardStats{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusRegistered:
			stats.Registered++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusResolved:
			stats.Resolved++
		}
		if t.Priority == domain.TicketPriorityUrgent {
			stats.Urgent++
		}
	}
	if stats.Total > 0 {
		stats.ResolutionRate = int(math.Round(float64(stats.Resolved) / float64(stats.Total) * 100))
	}
	return stats
}

// Analytics is the admin analytics breakdown.
type Analytics struct {
	Total                  int            `json:"total"`
	Resolved               int            `json:"resolved"`
	AverageResolutionHours float64        `json:"average_resolution_hours"`
	ByCategory             map[string]int `json:"by_category"`
	ByPriority             map[string]int `json:"by_priority"`
	ByStatus               map[string]int `json:"by_status"`
}

// ComputeAnalytics aggregates tickets. Resolution time is updated_at minus
// created_at of resolved tickets, rounded to one decimal.
func ComputeAnalytics(tickets []domain.Ticket) Analytics {
	a := Analytics{
		Total:      len(tickets),
		ByCategory: map[string]int{},
		ByPriority: map[string]int{},
		ByStatus:   map[string]int{},
	}

	var resolvedHours float64
	for _, t := range tickets {
		a.ByCategory[string(t.Category)]++
		a.ByPriority[string(t.Priority)]++
		a.ByStatus[string(t.Status)]++
		if t.Status != domain.TicketStatusResolved {
			continue
		}
		a.Resolved++
		if d := t.UpdatedAt.Sub(t.CreatedAt); d > 0 {
			resolvedHours += d.Hours()
		}
	}
	if a.Resolved > 0 {
		a.AverageResolutionHours = math.Round(resolvedHours/float64(a.Resolved)*10) / 10
	}
	return a
}

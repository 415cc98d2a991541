package classifier

import (
	"strings"

	"github.com/spec-kit/smart-resolve/internal/domain"
)

// Team names assigned per category.
const (
	TeamBilling   = "Billing Support"
	TeamTechnical = "Technical Support"
	TeamService   = "Customer Service"
	TeamGeneral   = "General Support"
)

type keywordRule[T any] struct {
	keywords []string
	value    T
	team     string
}

// Checked in order; the first rule with a matching keyword wins.
var categoryRules = []keywordRule[domain.TicketCategory]{
	{keywords: []string{"billing", "payment", "invoice"}, value: domain.TicketCategoryBilling, team: TeamBilling},
	{keywords: []string{"technical", "bug", "error", "crash"}, value: domain.TicketCategoryTechnical, team: TeamTechnical},
	{keywords: []string{"service", "support", "help"}, value: domain.TicketCategoryService, team: TeamService},
}

var priorityRules = []keywordRule[domain.TicketPriority]{
	{keywords: []string{"urgent", "emergency", "critical"}, value: domain.TicketPriorityUrgent},
	{keywords: []string{"important", "asap"}, value: domain.TicketPriorityHigh},
	{keywords: []string{"low", "minor"}, value: domain.TicketPriorityLow},
}

// Default returns the classification used for any field the service leaves out.
func Default() domain.Classification {
	return domain.Classification{
		Category:     domain.TicketCategoryGeneral,
		Priority:     domain.TicketPriorityMedium,
		AssignedTeam: TeamGeneral,
	}
}

// Fallback categorizes a description by keyword substring matching. It is only
// used when the classification service cannot be reached or answers garbage.
func Fallback(description string) domain.Classification {
	lower := strings.ToLower(description)
	result := Default()

	for _, rule := range categoryRules {
		if containsAny(lower, rule.keywords) {
			result.Category = rule.value
			result.AssignedTeam = rule.team
			break
		}
	}
	for _, rule := range priorityRules {
		if containsAny(lower, rule.keywords) {
			result.Priority = rule.value
			break
		}
	}
	return result
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

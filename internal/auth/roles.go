package auth

import "github.com/spec-kit/smart-resolve/internal/domain"

// Capability names something a role may do.
type Capability string

const (
	CapChat           Capability = "chat"
	CapViewOwnTickets Capability = "tickets:own"
	CapEditProfile    Capability = "profile:edit"
	CapViewAllTickets Capability = "tickets:all"
	CapUpdateStatus   Capability = "tickets:status"
	CapViewAnalytics  Capability = "analytics"
	CapAdminConsole   Capability = "admin:console"
)

var userCapabilities = []Capability{CapChat, CapViewOwnTickets, CapEditProfile}

var roleCapabilities = map[domain.Role]map[Capability]struct{}{
	domain.RoleUser:  capabilitySet(userCapabilities...),
	domain.RoleAdmin: capabilitySet(append(userCapabilities, CapViewAllTickets, CapUpdateStatus, CapViewAnalytics, CapAdminConsole)...),
}

func capabilitySet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Allows is the single authorization check. Unknown roles are allowed nothing.
func Allows(role domain.Role, capability Capability) bool {
	_, ok := roleCapabilities[role][capability]
	return ok
}

// ProfileAllows applies Allows to a possibly unresolved profile.
func ProfileAllows(profile *domain.Profile, capability Capability) bool {
	if profile == nil {
		return false
	}
	return Allows(profile.Role, capability)
}

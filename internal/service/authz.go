package service

// Actor identifies the authenticated caller of an operation
type Actor struct {
	UserID     uint
	Role       string
	HospitalID string
}

// AuthorizationGate answers whether an actor may perform privileged
// operations: approving, rejecting, allocating and resolving alerts. Every
// mutating service method consults the gate instead of inspecting roles
// itself.
type AuthorizationGate interface {
	IsPrivileged(actor Actor) bool
}

// RoleGate is an AuthorizationGate backed by a set of privileged role names
type RoleGate struct {
	privileged map[string]struct{}
}

// NewRoleGate builds a gate that treats the given roles as privileged
func NewRoleGate(roles ...string) *RoleGate {
	privileged := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		privileged[role] = struct{}{}
	}
	return &RoleGate{privileged: privileged}
}

// IsPrivileged reports whether the actor's role is in the privileged set
func (g *RoleGate) IsPrivileged(actor Actor) bool {
	_, ok := g.privileged[actor.Role]
	return ok
}

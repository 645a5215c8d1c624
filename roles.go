package permkit

import (
	"regexp"
	"strings"
)

// Role identifies a class of users with a fixed baseline of permissions.
type Role string

// Built-in workforce roles, highest privilege first.
const (
	RoleSuperAdmin           Role = "super_admin"
	RoleInternalAdmin        Role = "internal_admin"
	RoleInternalFieldManager Role = "internal_field_manager"
	RoleFieldCoordinator     Role = "field_coordinator"
	RoleBrandAgent           Role = "brand_agent"
	RoleClientManager        Role = "client_manager"
	RoleClientUser           Role = "client_user"
)

var roleFormat = regexp.MustCompile(`^[a-z][a-z_]*$`)

// BuiltinRoles returns the built-in roles in privilege order.
func BuiltinRoles() []Role {
	return []Role{
		RoleSuperAdmin,
		RoleInternalAdmin,
		RoleInternalFieldManager,
		RoleFieldCoordinator,
		RoleBrandAgent,
		RoleClientManager,
		RoleClientUser,
	}
}

// ParseRole validates a raw role identifier, typically taken from a session or JWT claim.
// Surrounding whitespace is ignored and the value is lower-cased.
func ParseRole(raw string) (Role, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !roleFormat.MatchString(s) {
		return "", NewError(ErrInvalidRole, "role must match "+roleFormat.String()).WithRole(raw)
	}
	return Role(s), nil
}

// Known reports whether r is one of the built-in roles.
func (r Role) Known() bool {
	for _, b := range BuiltinRoles() {
		if r == b {
			return true
		}
	}
	return false
}

// String returns the role identifier.
func (r Role) String() string {
	return string(r)
}

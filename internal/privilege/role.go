package privilege

import (
	"fmt"
	"strings"
)

// Role is a privilege level required to operate on a resource. Roles form a
// total order: a caller holding a higher role may do everything a lower role
// may do.
type Role uint8

const (
	// ReadOnly may inspect resources but not change them.
	ReadOnly Role = iota + 1
	// Operator may perform day-to-day operational actions (e.g. resets).
	Operator
	// ConfigureComponents may reconfigure managed components.
	ConfigureComponents
	// ConfigureUsers may manage accounts.
	ConfigureUsers
	// ConfigureManager may reconfigure the management service itself.
	ConfigureManager
	// Administrator holds every privilege.
	Administrator
)

var roleNames = map[Role]string{
	ReadOnly:            "ReadOnly",
	Operator:            "Operator",
	ConfigureComponents: "ConfigureComponents",
	ConfigureUsers:      "ConfigureUsers",
	ConfigureManager:    "ConfigureManager",
	Administrator:       "Administrator",
}

// String returns the canonical role name.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Satisfies reports whether a caller holding r may perform an operation
// requiring the given role.
func (r Role) Satisfies(required Role) bool {
	return r >= required
}

// ParseRole resolves a canonical role name, case-insensitively.
func ParseRole(name string) (Role, error) {
	for role, candidate := range roleNames {
		if strings.EqualFold(candidate, name) {
			return role, nil
		}
	}
	return 0, fmt.Errorf("privilege: unknown role %q", name)
}

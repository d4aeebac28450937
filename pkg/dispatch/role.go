package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

// Role is an access control role that can be granted on an asset contract.
type Role string

// Roles.
const (
	RoleAdmin            Role = "admin"
	RoleSupplyManagement Role = "supply-management"
	RoleUserManagement   Role = "user-management"
)

// ErrUnknownRole is returned for roles not known to asset contracts.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole converts a string into Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleSupplyManagement, RoleUserManagement:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// ContractRole returns the role identifier used by contracts.
func (r Role) ContractRole() string {
	switch r {
	case RoleAdmin:
		return "DEFAULT_ADMIN_ROLE"
	case RoleSupplyManagement:
		return "SUPPLY_MANAGEMENT_ROLE"
	case RoleUserManagement:
		return "USER_MANAGEMENT_ROLE"
	default:
		panic(fmt.Errorf("%w: %q", ErrUnknownRole, string(r)))
	}
}

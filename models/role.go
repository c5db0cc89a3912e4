package models

import (
	"database/sql/driver"
	"encoding"
	"errors"
	"fmt"
)

// Role is a user's role within an organization. Roles form a fixed total
// order; the ordinal is the rank used by minimum-role checks.
type Role int

const (
	// RoleUnknown is any role string this service does not recognize. It ranks
	// below every real role so it never satisfies a minimum-role check.
	RoleUnknown Role = iota

	RoleOrganizationUser
	RoleOrganizationAdmin
	RoleOrganizationOwner

	// Platform (SaaS staff) roles.
	RoleSaaSAccountant
	RoleSaaSAdmin
	RoleSaaSSuperAdmin
)

// AllRoles lists every known role in ascending rank.
var AllRoles = []Role{
	RoleOrganizationUser,
	RoleOrganizationAdmin,
	RoleOrganizationOwner,
	RoleSaaSAccountant,
	RoleSaaSAdmin,
	RoleSaaSSuperAdmin,
}

// ErrInvalidRole is returned when an unknown role name is decoded.
var ErrInvalidRole = errors.New("invalid role")

// String returns the role's storage name.
func (r Role) String() string {
	switch r {
	case RoleOrganizationUser:
		return "organization_user"
	case RoleOrganizationAdmin:
		return "organization_admin"
	case RoleOrganizationOwner:
		return "organization_owner"
	case RoleSaaSAccountant:
		return "saas_accountant"
	case RoleSaaSAdmin:
		return "saas_admin"
	case RoleSaaSSuperAdmin:
		return "saas_super_admin"
	default:
		return "unknown"
	}
}

// ParseRole parses a role name. Unrecognized names yield RoleUnknown.
func ParseRole(s string) Role {
	switch s {
	case "organization_user":
		return RoleOrganizationUser
	case "organization_admin":
		return RoleOrganizationAdmin
	case "organization_owner":
		return RoleOrganizationOwner
	case "saas_accountant":
		return RoleSaaSAccountant
	case "saas_admin":
		return RoleSaaSAdmin
	case "saas_super_admin":
		return RoleSaaSSuperAdmin
	default:
		return RoleUnknown
	}
}

// Rank returns the role's position in the hierarchy; 0 for unknown roles.
func (r Role) Rank() int {
	if !r.Valid() {
		return 0
	}
	return int(r)
}

// Valid reports whether r is one of the six known roles.
func (r Role) Valid() bool {
	return r >= RoleOrganizationUser && r <= RoleSaaSSuperAdmin
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}

// IsPlatform reports whether r is a platform-wide (SaaS staff) role.
func (r Role) IsPlatform() bool {
	switch r {
	case RoleSaaSAccountant, RoleSaaSAdmin, RoleSaaSSuperAdmin:
		return true
	default:
		return false
	}
}

var (
	_ encoding.TextMarshaler   = Role(0)
	_ encoding.TextUnmarshaler = (*Role)(nil)
	_ driver.Valuer            = Role(0)
)

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unlike ParseRole it
// rejects unknown names, so request bodies cannot carry made-up roles.
func (r *Role) UnmarshalText(text []byte) error {
	role := ParseRole(string(text))
	if role == RoleUnknown {
		return fmt.Errorf("%w: %q", ErrInvalidRole, string(text))
	}
	*r = role
	return nil
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRole, int(r))
	}
	return r.String(), nil
}

// Scan implements sql.Scanner. Rows holding a role this service does not know
// scan as RoleUnknown rather than failing the whole read.
func (r *Role) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*r = ParseRole(v)
	case []byte:
		*r = ParseRole(string(v))
	case nil:
		*r = RoleUnknown
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	return nil
}

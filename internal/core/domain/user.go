package domain

import (
	"fmt"
	"time"
)

// Role is a privilege bitmask. Each role contains every bit of the roles
// below it, so a containment check is a single mask comparison.
type Role uint8

const (
	RoleBasic   Role = 0b0001
	RoleSeller  Role = 0b0011
	RoleManager Role = 0b0111
	RoleAdmin   Role = 0b1111
)

// HasPrivilege reports whether r contains every privilege bit of required.
func (r Role) HasPrivilege(required Role) bool {
	return r&required == required
}

func (r Role) String() string {
	switch r {
	case RoleBasic:
		return "basic"
	case RoleSeller:
		return "seller"
	case RoleManager:
		return "manager"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

func ParseRole(s string) (Role, error) {
	switch s {
	case "basic":
		return RoleBasic, nil
	case "seller":
		return RoleSeller, nil
	case "manager":
		return RoleManager, nil
	case "admin":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

type User struct {
	ID               string
	Email            string
	Name             string
	PasswordHash     string
	Role             Role
	RefreshToken     string
	RefreshExpiresAt time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

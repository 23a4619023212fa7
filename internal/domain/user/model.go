package user

import "fmt"

// Role is the coarse authorization role attached to an authenticated
// actor by the upstream identity layer.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the already-authenticated actor identity every operation
// receives. Credential verification happens upstream; the core only
// performs ownership and role checks against it.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("principal user id is required")
	}
	switch p.Role {
	case RoleUser, RoleAdmin:
		return nil
	default:
		return fmt.Errorf("invalid principal role: %s", p.Role)
	}
}

// User is a registered account referenced by teams, fields and bookings.
type User struct {
	ID   string
	Name string
	Role Role
}

package domain

import "time"

// Role determines which dashboards and actions a user can reach.
type Role string

const (
	// RoleCitizen is stored as "user" to match the persisted session shape.
	RoleCitizen Role = "user"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsOperator reports whether the role may process applications.
func (r Role) IsOperator() bool {
	return r == RoleStaff || r == RoleAdmin
}

// User is a portal account. Citizens register themselves; staff and
// administrators are provisioned.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Address      string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package domain

import "github.com/google/uuid"

// Role is the capability level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Principal is the resolved identity of the caller. It is passed explicitly
// into every service call that needs an ownership or role check.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Owns reports whether the principal is the given owner.
func (p Principal) Owns(ownerID uuid.UUID) bool {
	return p.ID != uuid.Nil && p.ID == ownerID
}

// CanAccess reports whether the principal owns the resource or is an admin.
func (p Principal) CanAccess(ownerID uuid.UUID) bool {
	return p.Owns(ownerID) || p.IsAdmin()
}

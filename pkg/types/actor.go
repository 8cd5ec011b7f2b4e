package types

import "github.com/google/uuid"

// ActorRole distinguishes storefront customers from back-office staff.
type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleStaff    ActorRole = "staff"
)

// IsValid reports whether the role is recognised.
func (r ActorRole) IsValid() bool {
	return r == RoleCustomer || r == RoleStaff
}

// Actor identifies the authenticated principal behind a request.
type Actor struct {
	CustomerID uuid.UUID
	Email      string
	Role       ActorRole
}

// IsStaff reports whether the actor may perform back-office operations.
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff
}

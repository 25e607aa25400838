package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the authorization level of an authenticated account.
type Role string

const (
	RoleClient Role = "client"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

// ParseRole rejects unrecognized role strings at the boundary.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleStaff, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// Actor is the authenticated identity performing an operation. It is
// passed explicitly into every service call; nothing reads role state
// from ambient session storage.
type Actor struct {
	AccountID uuid.UUID `json:"account_id"`
	Role      Role      `json:"role"`
}

// IsClinicStaff reports whether the actor may manage the schedule:
// change statuses, edit other owners' bookings, delete appointments.
func (a Actor) IsClinicStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

package model

import (
	"github.com/google/uuid"
)

// Pet is the minimal projection the scheduler needs: enough to check
// that a client actor books only animals they own.
type Pet struct {
	ID      uuid.UUID `db:"id" json:"id"`
	OwnerID uuid.UUID `db:"owner_id" json:"owner_id"`
	Name    string    `db:"name" json:"name"`
	Species string    `db:"species" json:"species,omitempty"`
}

// StaffMember is the assignable staff projection used for the
// auto-assignment of client bookings.
type StaffMember struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Name   string    `db:"name" json:"name"`
	Active bool      `db:"active" json:"active"`
}

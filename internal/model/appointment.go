package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusUrgent    AppointmentStatus = "urgent"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// ParseAppointmentStatus rejects unrecognized status strings at the
// boundary; stored statuses are always one of the five constants.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch AppointmentStatus(s) {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusUrgent,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return AppointmentStatus(s), nil
	default:
		return "", fmt.Errorf("unknown appointment status: %q", s)
	}
}

// IsTerminal reports whether no further transition is permitted.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

var allowedTransitions = map[AppointmentStatus]map[AppointmentStatus]bool{
	AppointmentStatusPending: {
		AppointmentStatusConfirmed: true,
		AppointmentStatusUrgent:    true,
		AppointmentStatusCompleted: true,
		AppointmentStatusCancelled: true,
	},
	AppointmentStatusConfirmed: {
		AppointmentStatusUrgent:    true,
		AppointmentStatusCompleted: true,
		AppointmentStatusCancelled: true,
	},
	AppointmentStatusUrgent: {
		AppointmentStatusConfirmed: true,
		AppointmentStatusCompleted: true,
		AppointmentStatusCancelled: true,
	},
	AppointmentStatusCompleted: {},
	AppointmentStatusCancelled: {},
}

// CanTransition reports whether an appointment may move from one
// status to another. A transition to the same status is always legal.
// An unrecognized or empty source status carries no prior constraint
// and permits any destination; legacy rows imported before the status
// column was constrained rely on this.
func CanTransition(from, to AppointmentStatus) bool {
	if from == to {
		return true
	}
	dests, known := allowedTransitions[from]
	if !known {
		return true
	}
	return dests[to]
}

type Appointment struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	PetID       uuid.UUID         `db:"pet_id" json:"pet_id"`
	StaffID     *uuid.UUID        `db:"staff_id" json:"staff_id,omitempty"`
	ServiceID   uuid.UUID         `db:"service_id" json:"service_id"`
	Date        time.Time         `db:"date" json:"date"`
	StartSlotID uuid.UUID         `db:"start_slot_id" json:"start_slot_id"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Notes       string            `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// HoldsReservation reports whether the appointment still occupies its
// slot range. Cancelled appointments release their blocks; everything
// else, completed included, keeps its claim on the day it was booked.
func (a *Appointment) HoldsReservation() bool {
	return a.Status != AppointmentStatusCancelled
}

type CreateBookingRequest struct {
	PetID       uuid.UUID  `json:"pet_id" validate:"required"`
	ServiceID   uuid.UUID  `json:"service_id" validate:"required"`
	StaffID     *uuid.UUID `json:"staff_id,omitempty"`
	Date        string     `json:"date" validate:"required,datetime=2006-01-02"`
	StartSlotID uuid.UUID  `json:"start_slot_id" validate:"required"`
	Status      string     `json:"status,omitempty"`
	Notes       string     `json:"notes" validate:"max=1000"`
}

type EditBookingRequest struct {
	ServiceID   *uuid.UUID `json:"service_id,omitempty"`
	StaffID     *uuid.UUID `json:"staff_id,omitempty"`
	Date        *string    `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartSlotID *uuid.UUID `json:"start_slot_id,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type AppointmentFilters struct {
	PetID     *uuid.UUID
	StaffID   *uuid.UUID
	Status    *AppointmentStatus
	StartDate *time.Time
	EndDate   *time.Time
}

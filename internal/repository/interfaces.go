package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/petclinic/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	// AppointmentRepository is the durable record of bookings and the
	// transactional boundary for reservation consistency. Reserve and
	// Update commit the appointment row together with one reservation
	// row per occupied slot index; a write-time collision on the
	// (date, slot index) key surfaces as a slot-conflict rejection.
	AppointmentRepository interface {
		Reserve(ctx context.Context, appointment *model.Appointment, slotIndices []int) error
		Update(ctx context.Context, appointment *model.Appointment, slotIndices []int) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		ListByDate(ctx context.Context, date time.Time) ([]*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		Delete(ctx context.Context, id uuid.UUID) error
		OccupiedSlotIndices(ctx context.Context, date time.Time, excludeID *uuid.UUID) (map[int]bool, error)
		CountBookingsByDate(ctx context.Context) (map[time.Time]int, error)
	}

	// SlotRepository loads the shared daily slot catalog once at startup.
	SlotRepository interface {
		ListSlots(ctx context.Context) ([]model.TimeSlot, error)
	}

	// ServiceRepository exposes the read-only service catalog.
	ServiceRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		List(ctx context.Context) ([]*model.Service, error)
	}

	// PetRepository supplies the ownership check for client actors and
	// the owner contact lookup for booking notifications.
	PetRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Pet, error)
		ListIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
		OwnerEmail(ctx context.Context, petID uuid.UUID) (string, error)
	}

	// StaffRepository backs auto-assignment of client bookings.
	StaffRepository interface {
		FirstActive(ctx context.Context) (*model.StaffMember, error)
	}

	// RetentionRepository purges rows the retention worker decides are
	// past their useful life.
	RetentionRepository interface {
		PurgeExpiredReservations(ctx context.Context, before time.Time) (int64, error)
		PurgeCancelledAppointments(ctx context.Context, cutoff time.Time) (int64, error)
	}
)

package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/petclinic/booking-api/internal/model"
	"github.com/petclinic/booking-api/internal/repository"
	"github.com/petclinic/booking-api/internal/scheduling"
	apperrors "github.com/petclinic/booking-api/pkg/errors"
	"github.com/petclinic/booking-api/pkg/logger"
	"github.com/petclinic/booking-api/pkg/messaging"
	"github.com/petclinic/booking-api/pkg/metrics"
)

const dateLayout = "2006-01-02"

// Service orchestrates booking creation and edits: ownership and
// authority checks, date and overlap validation, and the atomic
// reservation against the appointment store.
type Service struct {
	repo      repository.AppointmentRepository
	services  repository.ServiceRepository
	pets      repository.PetRepository
	staff     repository.StaffRepository
	catalog   *model.SlotCatalog
	validator *scheduling.Validator
	policy    scheduling.Policy
	broker    messaging.Broker
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

func NewService(
	repo repository.AppointmentRepository,
	services repository.ServiceRepository,
	pets repository.PetRepository,
	staff repository.StaffRepository,
	catalog *model.SlotCatalog,
	policy scheduling.Policy,
	broker messaging.Broker,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		services:  services,
		pets:      pets,
		staff:     staff,
		catalog:   catalog,
		validator: scheduling.NewValidator(catalog, policy),
		policy:    policy,
		broker:    broker,
		metrics:   m,
		logger:    log,
	}
}

// CreateBooking books a service for a pet at a start slot. Client
// actors always produce a pending appointment for one of their own
// pets; staff and admin may book any pet with an explicit status.
func (s *Service) CreateBooking(ctx context.Context, actor model.Actor, req *model.CreateBookingRequest) (*model.Appointment, error) {
	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, apperrors.BadRequest("invalid date", err)
	}

	if err := s.checkPetOwnership(ctx, actor, req.PetID); err != nil {
		s.countRejection(err)
		return nil, err
	}

	svc, err := s.services.Get(ctx, req.ServiceID)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	status := model.AppointmentStatusPending
	if actor.IsClinicStaff() && req.Status != "" {
		status, err = model.ParseAppointmentStatus(req.Status)
		if err != nil {
			return nil, apperrors.BadRequest("invalid status", err)
		}
	}

	staffID := req.StaffID
	if actor.Role == model.RoleClient {
		staffID = s.autoAssignStaff(ctx)
	}

	blocks := svc.BlocksNeeded(s.catalog.SlotLength())

	occupied, err := s.repo.OccupiedSlotIndices(ctx, date, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read occupancy: %w", err)
	}

	if err := s.validator.Validate(date, req.StartSlotID, blocks, occupied); err != nil {
		s.countRejection(err)
		return nil, err
	}

	appointment := &model.Appointment{
		PetID:       req.PetID,
		StaffID:     staffID,
		ServiceID:   req.ServiceID,
		Date:        date,
		StartSlotID: req.StartSlotID,
		Status:      status,
		Notes:       req.Notes,
	}

	start := s.catalog.IndexOf(req.StartSlotID)
	if err := s.repo.Reserve(ctx, appointment, scheduling.SlotRange(start, blocks)); err != nil {
		// A concurrent booking can still win the race between the
		// occupancy read and the commit; the store surfaces that as
		// the same slot-conflict rejection.
		s.countRejection(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.Inc()
	}
	s.publish(ctx, messaging.ChannelAppointmentCreated, appointment)
	s.logger.Info("appointment booked",
		"appointment_id", appointment.ID.String(),
		"date", req.Date,
		"status", string(appointment.Status),
	)
	return appointment, nil
}

// EditBooking applies a partial update. Slot-affecting changes rerun
// the booking validation with the appointment's own reservation
// excluded; status changes run through the transition table and
// require staff or admin authority.
func (s *Service) EditBooking(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.EditBookingRequest) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeMutation(ctx, actor, appointment); err != nil {
		return nil, err
	}

	wasCancelled := appointment.Status == model.AppointmentStatusCancelled

	if req.Status != nil {
		if !actor.IsClinicStaff() {
			return nil, apperrors.Unauthorized("only staff may change appointment status")
		}
		newStatus, err := model.ParseAppointmentStatus(*req.Status)
		if err != nil {
			return nil, apperrors.BadRequest("invalid status", err)
		}
		if !model.CanTransition(appointment.Status, newStatus) {
			return nil, apperrors.InvalidTransition(string(appointment.Status), string(newStatus))
		}
		appointment.Status = newStatus
	}

	slotChanged := false

	if req.ServiceID != nil && *req.ServiceID != appointment.ServiceID {
		appointment.ServiceID = *req.ServiceID
		slotChanged = true
	}
	if req.Date != nil {
		date, err := s.parseDate(*req.Date)
		if err != nil {
			return nil, apperrors.BadRequest("invalid date", err)
		}
		if !date.Equal(appointment.Date) {
			appointment.Date = date
			slotChanged = true
		}
	}
	if req.StartSlotID != nil && *req.StartSlotID != appointment.StartSlotID {
		appointment.StartSlotID = *req.StartSlotID
		slotChanged = true
	}
	if req.StaffID != nil {
		appointment.StaffID = req.StaffID
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}

	svc, err := s.services.Get(ctx, appointment.ServiceID)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}
	blocks := svc.BlocksNeeded(s.catalog.SlotLength())

	if slotChanged {
		occupied, err := s.repo.OccupiedSlotIndices(ctx, appointment.Date, &appointment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read occupancy: %w", err)
		}
		if err := s.validator.Validate(appointment.Date, appointment.StartSlotID, blocks, occupied); err != nil {
			s.countRejection(err)
			return nil, err
		}
	}

	start := s.catalog.IndexOf(appointment.StartSlotID)
	if start < 0 {
		return nil, apperrors.UnknownSlot()
	}

	if err := s.repo.Update(ctx, appointment, scheduling.SlotRange(start, blocks)); err != nil {
		s.countRejection(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingsEdited.Inc()
	}
	channel := messaging.ChannelAppointmentUpdated
	if !wasCancelled && appointment.Status == model.AppointmentStatusCancelled {
		channel = messaging.ChannelAppointmentCancelled
	}
	s.publish(ctx, channel, appointment)
	s.logger.Info("appointment updated",
		"appointment_id", appointment.ID.String(),
		"status", string(appointment.Status),
	)
	return appointment, nil
}

// GetBooking returns an appointment the actor is allowed to see.
func (s *Service) GetBooking(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, actor, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// ListBookings lists appointments scoped to the actor's role: clients
// see their own pets, staff see their own assignments, admin sees all.
func (s *Service) ListBookings(ctx context.Context, actor model.Actor, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}

	if actor.Role == model.RoleStaff {
		staffID := actor.AccountID
		filters.StaffID = &staffID
	}

	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	if actor.Role != model.RoleClient {
		return appointments, nil
	}

	ownedIDs, err := s.pets.ListIDsByOwner(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned pets: %w", err)
	}
	owned := make(map[uuid.UUID]bool, len(ownedIDs))
	for _, petID := range ownedIDs {
		owned[petID] = true
	}

	scoped := appointments[:0]
	for _, a := range appointments {
		if owned[a.PetID] {
			scoped = append(scoped, a)
		}
	}
	return scoped, nil
}

// DeleteBooking removes an appointment entirely. An administrative
// operation: clients never delete, staff only their own assignments.
func (s *Service) DeleteBooking(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if actor.Role == model.RoleClient {
		return apperrors.Unauthorized("clients may not delete appointments")
	}

	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeMutation(ctx, actor, appointment); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.BookingsDeleted.Inc()
	}
	s.publish(ctx, messaging.ChannelAppointmentDeleted, appointment)
	s.logger.Info("appointment deleted", "appointment_id", id.String())
	return nil
}

func (s *Service) parseDate(value string) (time.Time, error) {
	loc := time.Local
	if s.policy.Location != nil {
		loc = s.policy.Location
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, err
	}
	return scheduling.DateOnly(t), nil
}

// checkPetOwnership allows staff and admin through; client actors may
// only touch pets they own.
func (s *Service) checkPetOwnership(ctx context.Context, actor model.Actor, petID uuid.UUID) error {
	pet, err := s.pets.Get(ctx, petID)
	if err != nil {
		return err
	}
	if actor.Role == model.RoleClient && pet.OwnerID != actor.AccountID {
		return apperrors.Unauthorized("pet belongs to another owner")
	}
	return nil
}

func (s *Service) authorizeMutation(ctx context.Context, actor model.Actor, appointment *model.Appointment) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleStaff:
		if appointment.StaffID != nil && *appointment.StaffID != actor.AccountID {
			return apperrors.Unauthorized("appointment is assigned to another staff member")
		}
		return nil
	default:
		return s.checkPetOwnership(ctx, actor, appointment.PetID)
	}
}

func (s *Service) authorizeView(ctx context.Context, actor model.Actor, appointment *model.Appointment) error {
	return s.authorizeMutation(ctx, actor, appointment)
}

// autoAssignStaff mirrors the front-desk behavior for client
// bookings: hand the appointment to the first active staff member.
// Best-effort; an unassigned appointment is still valid.
func (s *Service) autoAssignStaff(ctx context.Context) *uuid.UUID {
	staff, err := s.staff.FirstActive(ctx)
	if err != nil {
		s.logger.Warn("no active staff for auto-assignment")
		return nil
	}
	return &staff.ID
}

func (s *Service) publish(ctx context.Context, channel string, appointment *model.Appointment) {
	if s.broker == nil {
		return
	}
	event := messaging.BookingEvent{
		AppointmentID: appointment.ID.String(),
		PetID:         appointment.PetID.String(),
		ServiceID:     appointment.ServiceID.String(),
		Date:          appointment.Date.Format(dateLayout),
		StartSlotID:   appointment.StartSlotID.String(),
		Status:        string(appointment.Status),
		OccurredAt:    time.Now(),
	}
	if err := s.broker.Publish(ctx, channel, event); err != nil {
		if s.metrics != nil {
			s.metrics.EventsFailed.Inc()
		}
		s.logger.Error(err, "failed to publish booking event", "channel", channel)
		return
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(channel).Inc()
	}
}

func (s *Service) countRejection(err error) {
	if s.metrics == nil {
		return
	}
	code := apperrors.CodeOf(err)
	if code == apperrors.ErrSlotConflict {
		s.metrics.SlotConflicts.Inc()
	}
	s.metrics.BookingsRejected.WithLabelValues(rejectionLabel(code)).Inc()
}

func rejectionLabel(code apperrors.ErrorCode) string {
	switch code {
	case apperrors.ErrPastDate:
		return "past_date"
	case apperrors.ErrClosedDay:
		return "closed_day"
	case apperrors.ErrUnknownSlot:
		return "unknown_slot"
	case apperrors.ErrRunsPastClosing:
		return "runs_past_closing"
	case apperrors.ErrSlotConflict:
		return "slot_conflict"
	case apperrors.ErrUnknownService:
		return "unknown_service"
	case apperrors.ErrInvalidTransition:
		return "invalid_transition"
	case apperrors.ErrUnauthorized:
		return "unauthorized"
	case apperrors.ErrNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

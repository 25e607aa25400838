package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petclinic/booking-api/internal/model"
	"github.com/petclinic/booking-api/internal/scheduling"
	apperrors "github.com/petclinic/booking-api/pkg/errors"
	"github.com/petclinic/booking-api/pkg/logger"
)

type reservationKey struct {
	date string
	idx  int
}

// fakeAppointmentRepo mimics the store's behavior, including the
// write-time uniqueness guarantee on (date, slot index).
type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
	reservations map[reservationKey]uuid.UUID
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		appointments: make(map[uuid.UUID]*model.Appointment),
		reservations: make(map[reservationKey]uuid.UUID),
	}
}

func resKey(date time.Time, idx int) reservationKey {
	return reservationKey{date: date.Format("2006-01-02"), idx: idx}
}

func (r *fakeAppointmentRepo) Reserve(_ context.Context, a *model.Appointment, slotIndices []int) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.HoldsReservation() {
		for _, idx := range slotIndices {
			if _, taken := r.reservations[resKey(a.Date, idx)]; taken {
				return apperrors.SlotConflict()
			}
		}
		for _, idx := range slotIndices {
			r.reservations[resKey(a.Date, idx)] = a.ID
		}
	}
	stored := *a
	r.appointments[a.ID] = &stored
	return nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, a *model.Appointment, slotIndices []int) error {
	if _, ok := r.appointments[a.ID]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	for key, id := range r.reservations {
		if id == a.ID {
			delete(r.reservations, key)
		}
	}
	if a.HoldsReservation() {
		for _, idx := range slotIndices {
			if owner, taken := r.reservations[resKey(a.Date, idx)]; taken && owner != a.ID {
				return apperrors.SlotConflict()
			}
		}
		for _, idx := range slotIndices {
			r.reservations[resKey(a.Date, idx)] = a.ID
		}
	}
	stored := *a
	r.appointments[a.ID] = &stored
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAppointmentRepo) ListByDate(_ context.Context, date time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range r.appointments {
		if a.Date.Equal(date) {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range r.appointments {
		if filters != nil {
			if filters.StaffID != nil && (a.StaffID == nil || *a.StaffID != *filters.StaffID) {
				continue
			}
			if filters.Status != nil && a.Status != *filters.Status {
				continue
			}
			if filters.PetID != nil && a.PetID != *filters.PetID {
				continue
			}
		}
		copied := *a
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.appointments[id]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	delete(r.appointments, id)
	for key, owner := range r.reservations {
		if owner == id {
			delete(r.reservations, key)
		}
	}
	return nil
}

func (r *fakeAppointmentRepo) OccupiedSlotIndices(_ context.Context, date time.Time, excludeID *uuid.UUID) (map[int]bool, error) {
	occupied := make(map[int]bool)
	day := date.Format("2006-01-02")
	for key, owner := range r.reservations {
		if excludeID != nil && owner == *excludeID {
			continue
		}
		if key.date == day {
			occupied[key.idx] = true
		}
	}
	return occupied, nil
}

func (r *fakeAppointmentRepo) CountBookingsByDate(_ context.Context) (map[time.Time]int, error) {
	counts := make(map[time.Time]int)
	for _, a := range r.appointments {
		if a.Status != model.AppointmentStatusCancelled {
			counts[a.Date]++
		}
	}
	return counts, nil
}

type fakeServiceRepo struct {
	services map[uuid.UUID]*model.Service
}

func (r *fakeServiceRepo) Get(_ context.Context, id uuid.UUID) (*model.Service, error) {
	svc, ok := r.services[id]
	if !ok {
		return nil, apperrors.UnknownService(nil)
	}
	return svc, nil
}

func (r *fakeServiceRepo) List(_ context.Context) ([]*model.Service, error) {
	var out []*model.Service
	for _, s := range r.services {
		out = append(out, s)
	}
	return out, nil
}

type fakePetRepo struct {
	pets map[uuid.UUID]*model.Pet
}

func (r *fakePetRepo) Get(_ context.Context, id uuid.UUID) (*model.Pet, error) {
	pet, ok := r.pets[id]
	if !ok {
		return nil, apperrors.NotFound("pet", nil)
	}
	return pet, nil
}

func (r *fakePetRepo) ListIDsByOwner(_ context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, p := range r.pets {
		if p.OwnerID == ownerID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (r *fakePetRepo) OwnerEmail(_ context.Context, petID uuid.UUID) (string, error) {
	if _, ok := r.pets[petID]; !ok {
		return "", apperrors.NotFound("pet owner", nil)
	}
	return "owner@example.com", nil
}

type fakeStaffRepo struct {
	first *model.StaffMember
}

func (r *fakeStaffRepo) FirstActive(_ context.Context) (*model.StaffMember, error) {
	if r.first == nil {
		return nil, apperrors.NotFound("active staff", nil)
	}
	return r.first, nil
}

// Fixture: Monday 2026-03-02, nine 30-minute slots from 09:00, a
// 60-minute grooming service, one owner with one pet.
type fixture struct {
	svc       *Service
	repo      *fakeAppointmentRepo
	catalog   *model.SlotCatalog
	grooming  *model.Service
	checkup   *model.Service
	owner     model.Actor
	staff     model.Actor
	admin     model.Actor
	pet       *model.Pet
	staffID   uuid.UUID
	otherPet  *model.Pet
	otherUser model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	slots := make([]model.TimeSlot, 0, 9)
	for i := 0; i < 9; i++ {
		start := 9*time.Hour + time.Duration(i)*30*time.Minute
		slots = append(slots, model.TimeSlot{
			ID:          uuid.New(),
			StartOffset: start,
			EndOffset:   start + 30*time.Minute,
		})
	}
	catalog, err := model.NewSlotCatalog(slots)
	require.NoError(t, err)

	policy := scheduling.Policy{
		ClosedWeekdays: map[time.Weekday]bool{time.Saturday: true, time.Sunday: true},
		Location:       time.UTC,
		Now: func() time.Time {
			return time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
		},
	}

	grooming := &model.Service{ID: uuid.New(), Name: "Grooming", DurationMinutes: 60}
	checkup := &model.Service{ID: uuid.New(), Name: "Checkup", DurationMinutes: 30}

	ownerID := uuid.New()
	otherOwnerID := uuid.New()
	staffID := uuid.New()
	pet := &model.Pet{ID: uuid.New(), OwnerID: ownerID, Name: "Rex"}
	otherPet := &model.Pet{ID: uuid.New(), OwnerID: otherOwnerID, Name: "Milo"}

	repo := newFakeAppointmentRepo()
	svc := NewService(
		repo,
		&fakeServiceRepo{services: map[uuid.UUID]*model.Service{grooming.ID: grooming, checkup.ID: checkup}},
		&fakePetRepo{pets: map[uuid.UUID]*model.Pet{pet.ID: pet, otherPet.ID: otherPet}},
		&fakeStaffRepo{first: &model.StaffMember{ID: staffID, Name: "Dr. Vet", Active: true}},
		catalog,
		policy,
		nil,
		nil,
		logger.NewLogger(nil),
	)

	return &fixture{
		svc:       svc,
		repo:      repo,
		catalog:   catalog,
		grooming:  grooming,
		checkup:   checkup,
		owner:     model.Actor{AccountID: ownerID, Role: model.RoleClient},
		staff:     model.Actor{AccountID: staffID, Role: model.RoleStaff},
		admin:     model.Actor{AccountID: uuid.New(), Role: model.RoleAdmin},
		pet:       pet,
		staffID:   staffID,
		otherPet:  otherPet,
		otherUser: model.Actor{AccountID: otherOwnerID, Role: model.RoleClient},
	}
}

func (f *fixture) createReq(petID uuid.UUID, serviceID uuid.UUID, slotIdx int) *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		PetID:       petID,
		ServiceID:   serviceID,
		Date:        "2026-03-03",
		StartSlotID: f.catalog.At(slotIdx).ID,
	}
}

func TestCreateBookingClientIsAlwaysPending(t *testing.T) {
	f := newFixture(t)
	req := f.createReq(f.pet.ID, f.grooming.ID, 0)
	req.Status = "confirmed" // clients cannot pick a status

	appt, err := f.svc.CreateBooking(context.Background(), f.owner, req)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, appt.Status)
	require.NotNil(t, appt.StaffID, "client bookings are auto-assigned")
	assert.Equal(t, f.staffID, *appt.StaffID)
}

func TestCreateBookingStaffMaySetStatus(t *testing.T) {
	f := newFixture(t)
	req := f.createReq(f.pet.ID, f.grooming.ID, 0)
	req.Status = "urgent"

	appt, err := f.svc.CreateBooking(context.Background(), f.staff, req)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusUrgent, appt.Status)
}

func TestCreateBookingRejectsUnrecognizedStatus(t *testing.T) {
	f := newFixture(t)
	req := f.createReq(f.pet.ID, f.grooming.ID, 0)
	req.Status = "scheduled"

	_, err := f.svc.CreateBooking(context.Background(), f.staff, req)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestCreateBookingClientCannotBookForeignPet(t *testing.T) {
	f := newFixture(t)
	req := f.createReq(f.otherPet.ID, f.grooming.ID, 0)

	_, err := f.svc.CreateBooking(context.Background(), f.owner, req)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
}

func TestCreateBookingUnknownService(t *testing.T) {
	f := newFixture(t)
	req := f.createReq(f.pet.ID, uuid.New(), 0)

	_, err := f.svc.CreateBooking(context.Background(), f.owner, req)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnknownService, apperrors.CodeOf(err))
}

func TestCreateBookingSpecExample(t *testing.T) {
	// 60-minute service occupies two blocks: booking at slot 0
	// blocks a second booking at slot 1 but not at slot 2.
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.owner, f.createReq(f.pet.ID, f.grooming.ID, 0))
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(context.Background(), f.otherUser, f.createReq(f.otherPet.ID, f.grooming.ID, 1))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrSlotConflict, apperrors.CodeOf(err))

	_, err = f.svc.CreateBooking(context.Background(), f.otherUser, f.createReq(f.otherPet.ID, f.grooming.ID, 2))
	assert.NoError(t, err)
}

func TestCreateBookingDatePolicy(t *testing.T) {
	f := newFixture(t)

	req := f.createReq(f.pet.ID, f.checkup.ID, 0)
	req.Date = "2026-02-27"
	_, err := f.svc.CreateBooking(context.Background(), f.owner, req)
	assert.Equal(t, apperrors.ErrPastDate, apperrors.CodeOf(err))

	req = f.createReq(f.pet.ID, f.checkup.ID, 0)
	req.Date = "2026-03-07"
	_, err = f.svc.CreateBooking(context.Background(), f.owner, req)
	assert.Equal(t, apperrors.ErrClosedDay, apperrors.CodeOf(err))

	req = f.createReq(f.pet.ID, f.grooming.ID, 8)
	_, err = f.svc.CreateBooking(context.Background(), f.owner, req)
	assert.Equal(t, apperrors.ErrRunsPastClosing, apperrors.CodeOf(err))
}

func TestEditBookingClientCannotChangeStatus(t *testing.T) {
	f := newFixture(t)
	appt, err := f.svc.CreateBooking(context.Background(), f.owner, f.createReq(f.pet.ID, f.checkup.ID, 0))
	require.NoError(t, err)

	status := "confirmed"
	_, err = f.svc.EditBooking(context.Background(), f.owner, appt.ID, &model.EditBookingRequest{Status: &status})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
}

func TestEditBookingStatusTransitions(t *testing.T) {
	f := newFixture(t)
	appt, err := f.svc.CreateBooking(context.Background(), f.staff, f.createReq(f.pet.ID, f.checkup.ID, 0))
	require.NoError(t, err)

	confirmed := "confirmed"
	updated, err := f.svc.EditBooking(context.Background(), f.staff, appt.ID, &model.EditBookingRequest{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, updated.Status)

	completed := "completed"
	updated, err = f.svc.EditBooking(context.Background(), f.staff, appt.ID, &model.EditBookingRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, updated.Status)

	// Completed is terminal.
	pending := "pending"
	_, err = f.svc.EditBooking(context.Background(), f.staff, appt.ID, &model.EditBookingRequest{Status: &pending})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidTransition, apperrors.CodeOf(err))
}

func TestEditBookingSameStatusIsNoOp(t *testing.T) {
	f := newFixture(t)
	appt, err := f.svc.CreateBooking(context.Background(), f.staff, f.createReq(f.pet.ID, f.checkup.ID, 0))
	require.NoError(t, err)

	pending := "pending"
	updated, err := f.svc.EditBooking(context.Background(), f.staff, appt.ID, &model.EditBookingRequest{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, updated.Status)
}

func TestEditBookingOwnSlotNeverConflicts(t *testing.T) {
	f := newFixture(t)
	appt, err := f.svc.CreateBooking(context.Background(), f.owner, f.createReq(f.pet.ID, f.grooming.ID, 0))
	require.NoError(t, err)

	// Re-submitting the identical slot must exclude the appointment's
	// own reservation from the overlap set.
	slotID := f.catalog.At(0).ID
	sameDate := "2026-03-03"
	updated, err := f.svc.EditBooking(context.Background(), f.owner, appt.ID, &model.EditBookingRequest{
		Date:        &sameDate,
		StartSlotID: &slotID,
	})
	require.NoError(t, err)
	assert.Equal(t, slotID, updated.StartSlotID)
}

func TestEditBookingMoveIntoOccupiedRangeConflicts(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateBooking(context.Background(), f.owner, f.createReq(f.pet.ID, f.grooming.ID, 0))
	require.NoError(t, err)
	second, err := f.svc.CreateBooking(context.Background(), f.otherUser, f.createReq(f.otherPet.ID, f.grooming.ID, 2))
	require.NoError(t, err)

	slotID := f.catalog.At(1).ID
	_, err = f.svc.EditBooking(context.Background(), f.otherUser, second.ID, &model.EditBookingRequest{StartSlotID: &slotID})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrSlotConflict, apperrors.CodeOf(err))
}

func TestCancellationReleasesSlots(t *testing.T) {
	f := newFixture(t)
	appt, err := f.svc.CreateBooking(context.Background(), f.staff, f.createReq(f.pet.ID, f.grooming.ID, 0))
	require.NoError(t, err)

	cancelled := "cancelled"
	_, err = f.svc.EditBooking(context.Background(), f.staff, appt.ID, &model.EditBookingRequest{Status: &cancelled})
	require.NoError(t, err)

	// The freed range is bookable again.
	_, err = f.svc.CreateBooking(context.Background(), f.otherUser, f.createReq(f.otherPet.ID, f.grooming.ID, 0))
	assert.NoError(t, err)
}

func TestEditBookingStaffCannotTouchOtherAssignments(t *testing.T) {
	f := newFixture(t)
	otherStaff := uuid.New()
	req := f.createReq(f.pet.ID, f.checkup.ID, 0)
	req.StaffID = &otherStaff

	appt, err := f.svc.CreateBooking(context.Background(), f.admin, req)
	require.NoError(t, err)

	confirmed := "confirmed"
	_, err = f.svc.EditBooking(context.Background(), f.staff, appt.ID, &model.EditBookingRequest{Status: &confirmed})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))

	// Admin may.
	_, err = f.svc.EditBooking(context.Background(), f.admin, appt.ID, &model.EditBookingRequest{Status: &confirmed})
	assert.NoError(t, err)
}

func TestEditBookingNotFound(t *testing.T) {
	f := newFixture(t)
	notes := "hello"
	_, err := f.svc.EditBooking(context.Background(), f.admin, uuid.New(), &model.EditBookingRequest{Notes: &notes})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestDeleteBookingAuthority(t *testing.T) {
	f := newFixture(t)
	appt, err := f.svc.CreateBooking(context.Background(), f.owner, f.createReq(f.pet.ID, f.checkup.ID, 0))
	require.NoError(t, err)

	err = f.svc.DeleteBooking(context.Background(), f.owner, appt.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))

	err = f.svc.DeleteBooking(context.Background(), f.admin, appt.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetBooking(context.Background(), f.admin, appt.ID)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestListBookingsScopedByRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateBooking(context.Background(), f.owner, f.createReq(f.pet.ID, f.checkup.ID, 0))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(context.Background(), f.otherUser, f.createReq(f.otherPet.ID, f.checkup.ID, 1))
	require.NoError(t, err)

	mine, err := f.svc.ListBookings(context.Background(), f.owner, nil)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.pet.ID, mine[0].PetID)

	all, err := f.svc.ListBookings(context.Background(), f.admin, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assigned, err := f.svc.ListBookings(context.Background(), f.staff, nil)
	require.NoError(t, err)
	assert.Len(t, assigned, 2, "both client bookings were auto-assigned to this staff member")
}

func TestGetBookingOwnershipScope(t *testing.T) {
	f := newFixture(t)
	appt, err := f.svc.CreateBooking(context.Background(), f.owner, f.createReq(f.pet.ID, f.checkup.ID, 0))
	require.NoError(t, err)

	_, err = f.svc.GetBooking(context.Background(), f.otherUser, appt.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))

	got, err := f.svc.GetBooking(context.Background(), f.owner, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, got.ID)
}

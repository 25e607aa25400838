package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAppointmentStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    AppointmentStatus
		wantErr bool
	}{
		{"pending", AppointmentStatusPending, false},
		{"confirmed", AppointmentStatusConfirmed, false},
		{"urgent", AppointmentStatusUrgent, false},
		{"completed", AppointmentStatusCompleted, false},
		{"cancelled", AppointmentStatusCancelled, false},
		{"", "", true},
		{"Pending", "", true},
		{"scheduled", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAppointmentStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanTransitionSameStatusIsAlwaysLegal(t *testing.T) {
	statuses := []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusConfirmed,
		AppointmentStatusUrgent,
		AppointmentStatusCompleted,
		AppointmentStatusCancelled,
	}
	for _, s := range statuses {
		assert.True(t, CanTransition(s, s), "same-status transition must be a no-op for %s", s)
	}
}

func TestCanTransitionTerminalStatesHaveNoExit(t *testing.T) {
	destinations := []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusConfirmed,
		AppointmentStatusUrgent,
	}
	for _, to := range destinations {
		assert.False(t, CanTransition(AppointmentStatusCompleted, to))
		assert.False(t, CanTransition(AppointmentStatusCancelled, to))
	}
	assert.False(t, CanTransition(AppointmentStatusCompleted, AppointmentStatusCancelled))
	assert.False(t, CanTransition(AppointmentStatusCancelled, AppointmentStatusCompleted))
}

func TestCanTransitionTable(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{AppointmentStatusPending, AppointmentStatusConfirmed, true},
		{AppointmentStatusPending, AppointmentStatusUrgent, true},
		{AppointmentStatusPending, AppointmentStatusCompleted, true},
		{AppointmentStatusPending, AppointmentStatusCancelled, true},
		{AppointmentStatusConfirmed, AppointmentStatusUrgent, true},
		{AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{AppointmentStatusConfirmed, AppointmentStatusCancelled, true},
		{AppointmentStatusConfirmed, AppointmentStatusPending, false},
		{AppointmentStatusUrgent, AppointmentStatusConfirmed, true},
		{AppointmentStatusUrgent, AppointmentStatusCompleted, true},
		{AppointmentStatusUrgent, AppointmentStatusCancelled, true},
		{AppointmentStatusUrgent, AppointmentStatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestCanTransitionUnknownSourceIsPermissive(t *testing.T) {
	// Rows imported before the status column was constrained carry
	// arbitrary text; they may move to any recognized status.
	assert.True(t, CanTransition("", AppointmentStatusConfirmed))
	assert.True(t, CanTransition("legacy-status", AppointmentStatusCancelled))
}

func TestHoldsReservation(t *testing.T) {
	a := &Appointment{Status: AppointmentStatusCompleted}
	assert.True(t, a.HoldsReservation(), "completed appointments keep their slots for the day")

	a.Status = AppointmentStatusCancelled
	assert.False(t, a.HoldsReservation())
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"client", "staff", "admin"} {
		role, err := ParseRole(valid)
		assert.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)
}

func TestActorIsClinicStaff(t *testing.T) {
	assert.False(t, Actor{Role: RoleClient}.IsClinicStaff())
	assert.True(t, Actor{Role: RoleStaff}.IsClinicStaff())
	assert.True(t, Actor{Role: RoleAdmin}.IsClinicStaff())
}

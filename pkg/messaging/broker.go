package messaging

import (
	"context"
	"time"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Event channels for the booking lifecycle.
const (
	ChannelAppointmentCreated   = "appointment.created"
	ChannelAppointmentUpdated   = "appointment.updated"
	ChannelAppointmentCancelled = "appointment.cancelled"
	ChannelAppointmentDeleted   = "appointment.deleted"
)

// BookingEvent is the payload published on the appointment channels.
type BookingEvent struct {
	AppointmentID string    `json:"appointment_id"`
	PetID         string    `json:"pet_id"`
	ServiceID     string    `json:"service_id"`
	Date          string    `json:"date"`
	StartSlotID   string    `json:"start_slot_id"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

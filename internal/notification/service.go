// Package notification turns booking lifecycle events into owner
// emails. It consumes the broker feed rather than being called inline
// so a slow SMTP server never delays a booking response.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	gomail "gopkg.in/gomail.v2"

	"github.com/petclinic/booking-api/internal/config"
	"github.com/petclinic/booking-api/internal/model"
	"github.com/petclinic/booking-api/internal/repository"
	"github.com/petclinic/booking-api/pkg/logger"
	"github.com/petclinic/booking-api/pkg/messaging"
)

type Service struct {
	dialer *gomail.Dialer
	from   string
	pets   repository.PetRepository
	logger *logger.Logger
}

func NewService(cfg config.SMTPConfig, pets repository.PetRepository, log *logger.Logger) *Service {
	return &Service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		pets:   pets,
		logger: log,
	}
}

// Listen consumes booking events until the context is cancelled.
// Confirmed and cancelled bookings produce an owner email; everything
// else is ignored.
func (s *Service) Listen(ctx context.Context, broker messaging.Broker) error {
	created, err := broker.Subscribe(ctx, messaging.ChannelAppointmentCreated)
	if err != nil {
		return fmt.Errorf("failed to subscribe to created events: %w", err)
	}
	updated, err := broker.Subscribe(ctx, messaging.ChannelAppointmentUpdated)
	if err != nil {
		return fmt.Errorf("failed to subscribe to updated events: %w", err)
	}
	cancelled, err := broker.Subscribe(ctx, messaging.ChannelAppointmentCancelled)
	if err != nil {
		return fmt.Errorf("failed to subscribe to cancelled events: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-created:
			if !ok {
				return nil
			}
			s.handle(ctx, payload)
		case payload, ok := <-updated:
			if !ok {
				return nil
			}
			s.handle(ctx, payload)
		case payload, ok := <-cancelled:
			if !ok {
				return nil
			}
			s.handle(ctx, payload)
		}
	}
}

func (s *Service) handle(ctx context.Context, payload []byte) {
	var event messaging.BookingEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Error(err, "failed to decode booking event")
		return
	}

	switch model.AppointmentStatus(event.Status) {
	case model.AppointmentStatusConfirmed:
		s.send(ctx, event, "Appointment confirmed",
			fmt.Sprintf("Your appointment on %s is confirmed. See you then!", event.Date))
	case model.AppointmentStatusCancelled:
		s.send(ctx, event, "Appointment cancelled",
			fmt.Sprintf("Your appointment on %s has been cancelled.", event.Date))
	}
}

func (s *Service) send(ctx context.Context, event messaging.BookingEvent, subject, body string) {
	petID, err := uuid.Parse(event.PetID)
	if err != nil {
		s.logger.Error(err, "booking event carries an invalid pet id")
		return
	}

	to, err := s.pets.OwnerEmail(ctx, petID)
	if err != nil {
		s.logger.Error(err, "failed to resolve owner email", "pet_id", event.PetID)
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error(err, "failed to send booking email", "to", to)
		return
	}
	s.logger.Debug("booking email sent", "to", to, "subject", subject)
}

package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/petclinic/booking-api/internal/model"
	"github.com/petclinic/booking-api/internal/repository"
	"github.com/petclinic/booking-api/internal/scheduling"
	apperrors "github.com/petclinic/booking-api/pkg/errors"
)

// Service answers the read-only questions a slot picker needs. Its
// results are advisory snapshots: a booking attempted off a stale
// answer is still caught by the write-time conflict check.
type Service struct {
	repo      repository.AppointmentRepository
	services  repository.ServiceRepository
	catalog   *model.SlotCatalog
	validator *scheduling.Validator
}

func NewService(
	repo repository.AppointmentRepository,
	services repository.ServiceRepository,
	catalog *model.SlotCatalog,
	policy scheduling.Policy,
) *Service {
	return &Service{
		repo:      repo,
		services:  services,
		catalog:   catalog,
		validator: scheduling.NewValidator(catalog, policy),
	}
}

// ValidStartTimes lists every start slot on date from which the
// service's contiguous block run fits without touching an occupied
// slot, ascending. Empty when the date fails policy or the service is
// unknown. Recomputed per call, never cached.
func (s *Service) ValidStartTimes(ctx context.Context, date time.Time, serviceID uuid.UUID) ([]scheduling.StartOption, error) {
	if err := s.validator.CheckDate(date); err != nil {
		return nil, nil
	}

	svc, err := s.services.Get(ctx, serviceID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrUnknownService) {
			return nil, nil
		}
		return nil, err
	}

	occupied, err := s.repo.OccupiedSlotIndices(ctx, scheduling.DateOnly(date), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read occupancy: %w", err)
	}

	blocks := svc.BlocksNeeded(s.catalog.SlotLength())
	return scheduling.ValidStarts(s.catalog, blocks, occupied), nil
}

// DateCapacitySummary maps every date with at least one booking to
// its remaining slot count. Each booking counts as one slot here even
// when it spans several blocks, so multi-block days read higher than
// they really are. Advisory only; never used for conflict decisions.
func (s *Service) DateCapacitySummary(ctx context.Context) (map[string]int, error) {
	counts, err := s.repo.CountBookingsByDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	total := s.catalog.Len()
	summary := make(map[string]int, len(counts))
	for date, booked := range counts {
		remaining := total - booked
		if remaining < 0 {
			remaining = 0
		}
		summary[date.Format("2006-01-02")] = remaining
	}
	return summary, nil
}

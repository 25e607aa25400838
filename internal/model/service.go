package model

import (
	"time"

	"github.com/google/uuid"
)

// Service is read-only reference data for the scheduler. Price and
// category ride along for display; billing happens elsewhere.
type Service struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Category        string    `db:"category" json:"category"`
	Price           float64   `db:"price" json:"price"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
}

// BlocksNeeded is the number of contiguous catalog slots the service
// consumes, rounding a partial block up.
func (s *Service) BlocksNeeded(slotLength time.Duration) int {
	slotMinutes := int(slotLength / time.Minute)
	if slotMinutes <= 0 {
		return 0
	}
	return (s.DurationMinutes + slotMinutes - 1) / slotMinutes
}

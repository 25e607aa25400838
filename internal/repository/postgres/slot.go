package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/petclinic/booking-api/internal/model"
)

type slotRow struct {
	ID           uuid.UUID `db:"id"`
	StartMinutes int       `db:"start_minutes"`
	EndMinutes   int       `db:"end_minutes"`
}

func (r *slotRepository) ListSlots(ctx context.Context) ([]model.TimeSlot, error) {
	query := `
		SELECT id, start_minutes, end_minutes
		FROM time_slots
		ORDER BY start_minutes ASC
	`
	var rows []slotRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}

	slots := make([]model.TimeSlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, model.TimeSlot{
			ID:          row.ID,
			StartOffset: time.Duration(row.StartMinutes) * time.Minute,
			EndOffset:   time.Duration(row.EndMinutes) * time.Minute,
		})
	}
	return slots, nil
}

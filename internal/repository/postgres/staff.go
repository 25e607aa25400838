package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/petclinic/booking-api/internal/model"
	apperrors "github.com/petclinic/booking-api/pkg/errors"
)

// FirstActive returns the staff member client bookings fall back to
// when no explicit assignment was made.
func (r *staffRepository) FirstActive(ctx context.Context) (*model.StaffMember, error) {
	query := `
		SELECT id, name, active
		FROM staff
		WHERE active = true
		ORDER BY name ASC
		LIMIT 1
	`
	var staff model.StaffMember
	err := r.db.GetContext(ctx, &staff, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("active staff", err)
		}
		return nil, fmt.Errorf("failed to find active staff: %w", err)
	}
	return &staff, nil
}

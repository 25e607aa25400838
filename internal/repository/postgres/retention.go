package postgres

import (
	"context"
	"fmt"
	"time"
)

// PurgeExpiredReservations drops reservation rows for dates already in
// the past. The appointment rows stay; only the uniqueness claims on
// spent days are released.
func (r *retentionRepository) PurgeExpiredReservations(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM slot_reservations WHERE date < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired reservations: %w", err)
	}
	return result.RowsAffected()
}

// PurgeCancelledAppointments hard-deletes cancelled appointments not
// touched since the cutoff. Their reservation rows were already
// removed at cancellation time.
func (r *retentionRepository) PurgeCancelledAppointments(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM appointments WHERE status = 'cancelled' AND updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cancelled appointments: %w", err)
	}
	return result.RowsAffected()
}

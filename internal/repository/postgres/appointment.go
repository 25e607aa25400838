package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/petclinic/booking-api/internal/model"
	apperrors "github.com/petclinic/booking-api/pkg/errors"
)

// Postgres error codes surfaced when two reservations race for the
// same (date, slot_index) key.
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
)

// isReservationConflict reports whether a write failed because
// another transaction claimed an overlapping slot range. Translated
// to the same rejection the read-time check produces.
func isReservationConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation || pqErr.Code == pqSerializationFailure
	}
	return false
}

func (r *appointmentRepository) Reserve(ctx context.Context, appointment *model.Appointment, slotIndices []int) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	now := time.Now()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	err := r.WithSerializableTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO appointments (
				id, pet_id, staff_id, service_id,
				date, start_slot_id, status, notes,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		if _, err := tx.ExecContext(ctx, query,
			appointment.ID,
			appointment.PetID,
			appointment.StaffID,
			appointment.ServiceID,
			appointment.Date,
			appointment.StartSlotID,
			appointment.Status,
			appointment.Notes,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		); err != nil {
			return err
		}

		return insertReservations(ctx, tx, appointment, slotIndices)
	})
	if err != nil {
		if isReservationConflict(err) {
			return apperrors.SlotConflict()
		}
		return fmt.Errorf("failed to reserve appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment, slotIndices []int) error {
	appointment.UpdatedAt = time.Now()

	err := r.WithSerializableTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET pet_id = $1, staff_id = $2, service_id = $3, date = $4,
			    start_slot_id = $5, status = $6, notes = $7, updated_at = $8
			WHERE id = $9
		`
		result, err := tx.ExecContext(ctx, query,
			appointment.PetID,
			appointment.StaffID,
			appointment.ServiceID,
			appointment.Date,
			appointment.StartSlotID,
			appointment.Status,
			appointment.Notes,
			appointment.UpdatedAt,
			appointment.ID,
		)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("appointment", nil)
		}

		// The reservation rows always mirror the appointment row:
		// drop the old range, re-insert the current one.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM slot_reservations WHERE appointment_id = $1`,
			appointment.ID,
		); err != nil {
			return err
		}

		return insertReservations(ctx, tx, appointment, slotIndices)
	})
	if err != nil {
		if isReservationConflict(err) {
			return apperrors.SlotConflict()
		}
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

// insertReservations writes one row per occupied slot index. The
// unique (date, slot_index) constraint is what makes double-booking
// impossible even under concurrent commits.
func insertReservations(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment, slotIndices []int) error {
	if !appointment.HoldsReservation() {
		return nil
	}
	for _, idx := range slotIndices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO slot_reservations (appointment_id, date, slot_index) VALUES ($1, $2, $3)`,
			appointment.ID,
			appointment.Date,
			idx,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, pet_id, staff_id, service_id,
		       date, start_slot_id, status, notes,
		       created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) ListByDate(ctx context.Context, date time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, pet_id, staff_id, service_id,
		       date, start_slot_id, status, notes,
		       created_at, updated_at
		FROM appointments
		WHERE date = $1
		ORDER BY created_at ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments by date: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, pet_id, staff_id, service_id,
		       date, start_slot_id, status, notes,
		       created_at, updated_at
		FROM appointments
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PetID != nil {
			query += fmt.Sprintf(" AND pet_id = $%d", argCount)
			args = append(args, *filters.PetID)
			argCount++
		}
		if filters.StaffID != nil {
			query += fmt.Sprintf(" AND staff_id = $%d", argCount)
			args = append(args, *filters.StaffID)
			argCount++
		}
		if filters.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, *filters.Status)
			argCount++
		}
		if filters.StartDate != nil {
			query += fmt.Sprintf(" AND date >= $%d", argCount)
			args = append(args, *filters.StartDate)
			argCount++
		}
		if filters.EndDate != nil {
			query += fmt.Sprintf(" AND date <= $%d", argCount)
			args = append(args, *filters.EndDate)
			argCount++
		}
	}

	query += " ORDER BY date ASC, start_slot_id ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM slot_reservations WHERE appointment_id = $1`, id,
		); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("appointment", nil)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) OccupiedSlotIndices(ctx context.Context, date time.Time, excludeID *uuid.UUID) (map[int]bool, error) {
	query := `
		SELECT slot_index FROM slot_reservations
		WHERE date = $1
	`
	args := []interface{}{date}

	if excludeID != nil {
		query += " AND appointment_id != $2"
		args = append(args, *excludeID)
	}

	var indices []int
	if err := r.db.SelectContext(ctx, &indices, query, args...); err != nil {
		return nil, fmt.Errorf("failed to read occupied slots: %w", err)
	}

	occupied := make(map[int]bool, len(indices))
	for _, idx := range indices {
		occupied[idx] = true
	}
	return occupied, nil
}

func (r *appointmentRepository) CountBookingsByDate(ctx context.Context) (map[time.Time]int, error) {
	query := `
		SELECT date, COUNT(*) AS bookings
		FROM appointments
		WHERE status != 'cancelled'
		GROUP BY date
	`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by date: %w", err)
	}
	defer rows.Close()

	counts := make(map[time.Time]int)
	for rows.Next() {
		var date time.Time
		var n int
		if err := rows.Scan(&date, &n); err != nil {
			return nil, fmt.Errorf("failed to scan booking count: %w", err)
		}
		counts[date] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate booking counts: %w", err)
	}
	return counts, nil
}

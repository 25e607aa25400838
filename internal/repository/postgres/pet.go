package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/petclinic/booking-api/internal/model"
	apperrors "github.com/petclinic/booking-api/pkg/errors"
)

func (r *petRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	query := `
		SELECT id, owner_id, name, species
		FROM pets
		WHERE id = $1
	`
	var pet model.Pet
	err := r.db.GetContext(ctx, &pet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("pet", err)
		}
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	return &pet, nil
}

func (r *petRepository) OwnerEmail(ctx context.Context, petID uuid.UUID) (string, error) {
	query := `
		SELECT o.email
		FROM owners o
		JOIN pets p ON p.owner_id = o.id
		WHERE p.id = $1
	`
	var email string
	err := r.db.GetContext(ctx, &email, query, petID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperrors.NotFound("pet owner", err)
		}
		return "", fmt.Errorf("failed to look up owner email: %w", err)
	}
	return email, nil
}

func (r *petRepository) ListIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM pets
		WHERE owner_id = $1
	`
	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list pets for owner: %w", err)
	}
	return ids, nil
}

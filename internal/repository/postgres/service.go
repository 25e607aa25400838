package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/petclinic/booking-api/internal/model"
	apperrors "github.com/petclinic/booking-api/pkg/errors"
)

func (r *serviceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	if cached, ok := r.cache.Get(id.String()); ok {
		return cached.(*model.Service), nil
	}

	query := `
		SELECT id, name, category, price, duration_minutes
		FROM services
		WHERE id = $1
	`
	var svc model.Service
	err := r.db.GetContext(ctx, &svc, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.UnknownService(err)
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	r.cache.Set(id.String(), &svc, gocache.DefaultExpiration)
	return &svc, nil
}

func (r *serviceRepository) List(ctx context.Context) ([]*model.Service, error) {
	query := `
		SELECT id, name, category, price, duration_minutes
		FROM services
		ORDER BY name ASC
	`
	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

package worker

import (
	"context"
	"time"

	"github.com/petclinic/booking-api/internal/repository"
	"github.com/petclinic/booking-api/internal/scheduling"
	"github.com/petclinic/booking-api/pkg/logger"
)

// RetentionWorker sweeps the appointment store on an interval: slot
// reservations for past dates are released and long-cancelled
// appointments are removed.
type RetentionWorker struct {
	repo               repository.RetentionRepository
	logger             *logger.Logger
	interval           time.Duration
	cancelledRetention time.Duration
}

func NewRetentionWorker(repo repository.RetentionRepository, log *logger.Logger, interval, cancelledRetention time.Duration) *RetentionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if cancelledRetention <= 0 {
		cancelledRetention = 90 * 24 * time.Hour
	}
	return &RetentionWorker{
		repo:               repo,
		logger:             log,
		interval:           interval,
		cancelledRetention: cancelledRetention,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("retention worker started", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retention worker shutting down")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	today := scheduling.DateOnly(time.Now())

	released, err := w.repo.PurgeExpiredReservations(ctx, today)
	if err != nil {
		w.logger.Error(err, "failed to purge expired reservations")
	} else if released > 0 {
		w.logger.Info("released expired reservations", "rows", released)
	}

	cutoff := time.Now().Add(-w.cancelledRetention)
	purged, err := w.repo.PurgeCancelledAppointments(ctx, cutoff)
	if err != nil {
		w.logger.Error(err, "failed to purge cancelled appointments")
	} else if purged > 0 {
		w.logger.Info("purged cancelled appointments", "rows", purged)
	}
}

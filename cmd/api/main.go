package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/petclinic/booking-api/internal/config"
	appointmentHandler "github.com/petclinic/booking-api/internal/handler/appointment"
	availabilityHandler "github.com/petclinic/booking-api/internal/handler/availability"
	healthHandler "github.com/petclinic/booking-api/internal/handler/health"
	"github.com/petclinic/booking-api/internal/middleware"
	"github.com/petclinic/booking-api/internal/model"
	"github.com/petclinic/booking-api/internal/notification"
	"github.com/petclinic/booking-api/internal/repository/postgres"
	"github.com/petclinic/booking-api/internal/router"
	"github.com/petclinic/booking-api/internal/scheduling"
	availabilityService "github.com/petclinic/booking-api/internal/service/availability"
	bookingService "github.com/petclinic/booking-api/internal/service/booking"
	"github.com/petclinic/booking-api/pkg/auth"
	"github.com/petclinic/booking-api/pkg/logger"
	"github.com/petclinic/booking-api/pkg/messaging"
	redisbroker "github.com/petclinic/booking-api/pkg/messaging/redis"
	"github.com/petclinic/booking-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	slotRepo := postgres.NewSlotRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	petRepo := postgres.NewPetRepository(db)
	staffRepo := postgres.NewStaffRepository(db)

	// The slot catalog is loaded once; it never changes within a run.
	slots, err := slotRepo.ListSlots(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load slot catalog")
	}
	catalog, err := model.NewSlotCatalog(slots)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid slot catalog")
	}

	closedDays, err := cfg.Clinic.ClosedWeekdays()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid clinic closed-day configuration")
	}
	location, err := cfg.Clinic.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid clinic timezone")
	}
	policy := scheduling.Policy{
		ClosedWeekdays: closedDays,
		Location:       location,
	}

	// Booking events ride over Redis; the API still works without it.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   3,
			RetryBackoff: 100 * time.Millisecond,
			PoolSize:     10,
			MinIdleConns: 2,
		}, appLogger.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	appMetrics := metrics.NewMetrics("petclinic", "booking")

	// Services
	bookingSvc := bookingService.NewService(
		appointmentRepo,
		serviceRepo,
		petRepo,
		staffRepo,
		catalog,
		policy,
		broker,
		appMetrics,
		appLogger.WithComponent("booking"),
	)
	availabilitySvc := availabilityService.NewService(appointmentRepo, serviceRepo, catalog, policy)

	// Notification listener
	notifyCtx, stopNotify := context.WithCancel(context.Background())
	defer stopNotify()
	if broker != nil && cfg.SMTP.Host != "" {
		notifier := notification.NewService(cfg.SMTP, petRepo, appLogger.WithComponent("notification"))
		go func() {
			if err := notifier.Listen(notifyCtx, broker); err != nil && notifyCtx.Err() == nil {
				appLogger.Error(err, "notification listener stopped")
			}
		}()
	}

	// Middleware and handlers
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, "booking-api")
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	r := router.NewRouter(
		authMiddleware,
		healthHandler.NewHandler(db),
		appointmentHandler.NewHandler(bookingSvc),
		availabilityHandler.NewHandler(availabilitySvc),
		router.Config{
			RateLimit:      50,
			RateBurst:      100,
			MetricsPrefix:  "booking_api",
			RequestTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("booking API listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

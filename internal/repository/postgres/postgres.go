package postgres

import (
	"time"

	"github.com/jmoiron/sqlx"
	gocache "github.com/patrickmn/go-cache"

	"github.com/petclinic/booking-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

type slotRepository struct {
	db *sqlx.DB
}

type serviceRepository struct {
	db    *sqlx.DB
	cache *gocache.Cache
}

type petRepository struct {
	db *sqlx.DB
}

type staffRepository struct {
	db *sqlx.DB
}

type retentionRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{BaseRepository: NewBaseRepository(db)}
}

func NewSlotRepository(db *sqlx.DB) repository.SlotRepository {
	return &slotRepository{db: db}
}

// NewServiceRepository caches catalog reads; services change rarely
// and a stale duration for a few minutes is harmless.
func NewServiceRepository(db *sqlx.DB) repository.ServiceRepository {
	return &serviceRepository{
		db:    db,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func NewPetRepository(db *sqlx.DB) repository.PetRepository {
	return &petRepository{db: db}
}

func NewStaffRepository(db *sqlx.DB) repository.StaffRepository {
	return &staffRepository{db: db}
}

func NewRetentionRepository(db *sqlx.DB) repository.RetentionRepository {
	return &retentionRepository{db: db}
}

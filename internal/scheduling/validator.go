// Package scheduling holds the pure booking rules: date eligibility,
// slot geometry, and overlap detection against a day's occupancy set.
// Nothing here touches storage; callers fetch occupancy and commit
// reservations atomically around these checks.
package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/petclinic/booking-api/internal/model"
	apperrors "github.com/petclinic/booking-api/pkg/errors"
)

// Policy is the clinic's date-eligibility configuration.
type Policy struct {
	ClosedWeekdays map[time.Weekday]bool
	Location       *time.Location
	Now            func() time.Time
}

func (p Policy) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.Local
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Today returns the current civil date in the clinic's timezone.
func (p Policy) Today() time.Time {
	return DateOnly(p.now().In(p.location()))
}

// DateOnly truncates a timestamp to its civil date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Validator enforces date policy and slot availability for a
// requested start slot plus block count.
type Validator struct {
	catalog *model.SlotCatalog
	policy  Policy
}

func NewValidator(catalog *model.SlotCatalog, policy Policy) *Validator {
	return &Validator{catalog: catalog, policy: policy}
}

// CheckDate applies the date-eligibility policy on its own; the
// availability query uses it to empty out ineligible days.
func (v *Validator) CheckDate(date time.Time) error {
	date = DateOnly(date)
	if date.Before(v.policy.Today()) {
		return apperrors.PastDate()
	}
	if v.policy.ClosedWeekdays[date.Weekday()] {
		return apperrors.ClosedDay()
	}
	return nil
}

// Validate evaluates the booking policy in order, first failure wins:
// past date, closed day, unknown slot, runs past closing, slot
// conflict. The occupied set must already exclude the appointment
// being edited, if any. Pure read-then-decide; committing the
// reservation atomically is the caller's job.
func (v *Validator) Validate(date time.Time, startSlotID uuid.UUID, blocksNeeded int, occupied map[int]bool) error {
	if err := v.CheckDate(date); err != nil {
		return err
	}

	start := v.catalog.IndexOf(startSlotID)
	if start < 0 {
		return apperrors.UnknownSlot()
	}

	if start+blocksNeeded > v.catalog.Len() {
		return apperrors.RunsPastClosing()
	}

	for _, idx := range SlotRange(start, blocksNeeded) {
		if occupied[idx] {
			return apperrors.SlotConflict()
		}
	}
	return nil
}

// SlotRange expands a start index and block count into the occupied
// slot indices [start, start+blocks).
func SlotRange(start, blocks int) []int {
	indices := make([]int, 0, blocks)
	for i := start; i < start+blocks; i++ {
		indices = append(indices, i)
	}
	return indices
}

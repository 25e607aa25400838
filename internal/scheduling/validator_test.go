package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petclinic/booking-api/internal/model"
	apperrors "github.com/petclinic/booking-api/pkg/errors"
)

// Monday 2026-03-02, 08:00 clinic time.
var testNow = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

func testPolicy() Policy {
	return Policy{
		ClosedWeekdays: map[time.Weekday]bool{
			time.Saturday: true,
			time.Sunday:   true,
		},
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	}
}

func testCatalog(t *testing.T, n int) *model.SlotCatalog {
	t.Helper()
	slots := make([]model.TimeSlot, 0, n)
	for i := 0; i < n; i++ {
		start := 9*time.Hour + time.Duration(i)*30*time.Minute
		slots = append(slots, model.TimeSlot{
			ID:          uuid.New(),
			StartOffset: start,
			EndOffset:   start + 30*time.Minute,
		})
	}
	catalog, err := model.NewSlotCatalog(slots)
	require.NoError(t, err)
	return catalog
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateRejectsInOrder(t *testing.T) {
	catalog := testCatalog(t, 9)
	v := NewValidator(catalog, testPolicy())
	firstSlot := catalog.At(0).ID

	tests := []struct {
		name     string
		date     time.Time
		slotID   uuid.UUID
		blocks   int
		occupied map[int]bool
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "past date",
			date:     date(2026, time.February, 27),
			slotID:   firstSlot,
			blocks:   1,
			wantCode: apperrors.ErrPastDate,
		},
		{
			name:     "closed saturday",
			date:     date(2026, time.March, 7),
			slotID:   firstSlot,
			blocks:   1,
			wantCode: apperrors.ErrClosedDay,
		},
		{
			name:     "closed sunday",
			date:     date(2026, time.March, 8),
			slotID:   firstSlot,
			blocks:   1,
			wantCode: apperrors.ErrClosedDay,
		},
		{
			name:     "unknown slot",
			date:     date(2026, time.March, 3),
			slotID:   uuid.New(),
			blocks:   1,
			wantCode: apperrors.ErrUnknownSlot,
		},
		{
			name:     "runs past closing",
			date:     date(2026, time.March, 3),
			slotID:   catalog.At(8).ID,
			blocks:   2,
			wantCode: apperrors.ErrRunsPastClosing,
		},
		{
			name:     "slot conflict",
			date:     date(2026, time.March, 3),
			slotID:   firstSlot,
			blocks:   2,
			occupied: map[int]bool{1: true},
			wantCode: apperrors.ErrSlotConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.date, tt.slotID, tt.blocks, tt.occupied)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
		})
	}
}

func TestValidatePastDateWinsOverClosedDay(t *testing.T) {
	// A past Saturday must report PastDate, not ClosedDay: the policy
	// is evaluated in order and the first failure wins.
	catalog := testCatalog(t, 9)
	v := NewValidator(catalog, testPolicy())

	err := v.Validate(date(2026, time.February, 28), catalog.At(0).ID, 1, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrPastDate, apperrors.CodeOf(err))
}

func TestValidateTodayIsBookable(t *testing.T) {
	catalog := testCatalog(t, 9)
	v := NewValidator(catalog, testPolicy())

	err := v.Validate(date(2026, time.March, 2), catalog.At(0).ID, 2, nil)
	assert.NoError(t, err)
}

func TestValidateSpecExample(t *testing.T) {
	// 9 slots of 30 minutes from 09:00, 60-minute service: booking at
	// index 0 occupies {0,1}; a second request at index 1 conflicts; a
	// request at index 2 fits.
	catalog := testCatalog(t, 9)
	v := NewValidator(catalog, testPolicy())
	monday := date(2026, time.March, 9)

	require.NoError(t, v.Validate(monday, catalog.At(0).ID, 2, nil))
	occupied := map[int]bool{0: true, 1: true}

	err := v.Validate(monday, catalog.At(1).ID, 2, occupied)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrSlotConflict, apperrors.CodeOf(err))

	assert.NoError(t, v.Validate(monday, catalog.At(2).ID, 2, occupied))
}

func TestValidateExcludedReservationDoesNotConflict(t *testing.T) {
	// The occupied set is built by the caller with the edited
	// appointment excluded; re-validating its own range passes.
	catalog := testCatalog(t, 9)
	v := NewValidator(catalog, testPolicy())

	err := v.Validate(date(2026, time.March, 3), catalog.At(4).ID, 2, map[int]bool{})
	assert.NoError(t, err)
}

func TestSlotRange(t *testing.T) {
	assert.Equal(t, []int{3, 4, 5}, SlotRange(3, 3))
	assert.Equal(t, []int{0}, SlotRange(0, 1))
	assert.Empty(t, SlotRange(2, 0))
}

func TestValidStartsSkipsOccupiedRuns(t *testing.T) {
	catalog := testCatalog(t, 5)
	// Slots: [0 1 2 3 4], occupied: {2}. Two-block starts: {0, 3}.
	occupied := map[int]bool{2: true}

	starts := ValidStarts(catalog, 2, occupied)
	require.Len(t, starts, 2)
	assert.Equal(t, catalog.At(0).ID, starts[0].SlotID)
	assert.Equal(t, catalog.At(3).ID, starts[1].SlotID)
	assert.Equal(t, "09:00", starts[0].Clock)
	assert.Equal(t, "10:30", starts[1].Clock)
}

func TestValidStartsAscendingAndBounded(t *testing.T) {
	catalog := testCatalog(t, 9)

	starts := ValidStarts(catalog, 3, nil)
	require.Len(t, starts, 7, "a 3-block run cannot start in the last two slots")
	for i := 1; i < len(starts); i++ {
		assert.True(t, starts[i-1].StartOffset < starts[i].StartOffset)
	}
}

func TestValidStartsFullDayIsEmpty(t *testing.T) {
	catalog := testCatalog(t, 3)
	occupied := map[int]bool{0: true, 1: true, 2: true}
	assert.Empty(t, ValidStarts(catalog, 1, occupied))
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2026, time.March, 2, 17, 45, 12, 99, time.UTC)
	assert.Equal(t, date(2026, time.March, 2), DateOnly(ts))
}

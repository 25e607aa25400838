package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/petclinic/booking-api/internal/model"
)

// StartOption is one bookable start slot for a given date and
// service, in ascending time order.
type StartOption struct {
	SlotID      uuid.UUID     `json:"slot_id"`
	StartOffset time.Duration `json:"start_offset"`
	Clock       string        `json:"clock"`
}

// ValidStarts returns every slot index from which a contiguous run of
// blocksNeeded free slots fits inside the catalog. The occupied set is
// a snapshot; the write-time check remains the source of correctness.
func ValidStarts(catalog *model.SlotCatalog, blocksNeeded int, occupied map[int]bool) []StartOption {
	if blocksNeeded <= 0 {
		return nil
	}

	var options []StartOption
	for i := 0; i+blocksNeeded <= catalog.Len(); i++ {
		free := true
		for _, idx := range SlotRange(i, blocksNeeded) {
			if occupied[idx] {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		slot := catalog.At(i)
		options = append(options, StartOption{
			SlotID:      slot.ID,
			StartOffset: slot.StartOffset,
			Clock:       slot.Clock(),
		})
	}
	return options
}

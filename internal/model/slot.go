package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// TimeSlot is one fixed-length block in the clinic's shared daily
// catalog. Offsets are measured from midnight; the catalog is the same
// for every day.
type TimeSlot struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	StartOffset time.Duration `db:"start_offset" json:"start_offset"`
	EndOffset   time.Duration `db:"end_offset" json:"end_offset"`
}

// Clock renders the slot start as HH:MM for display.
func (s TimeSlot) Clock() string {
	h := int(s.StartOffset / time.Hour)
	m := int(s.StartOffset % time.Hour / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// SlotCatalog is the ordered, immutable slot sequence shared by the
// whole clinic. Built once at startup; safe for concurrent reads.
type SlotCatalog struct {
	slots []TimeSlot
	index map[uuid.UUID]int
}

func NewSlotCatalog(slots []TimeSlot) (*SlotCatalog, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("slot catalog is empty")
	}

	ordered := make([]TimeSlot, len(slots))
	copy(ordered, slots)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].StartOffset < ordered[j].StartOffset
	})

	index := make(map[uuid.UUID]int, len(ordered))
	for i, s := range ordered {
		if s.EndOffset <= s.StartOffset {
			return nil, fmt.Errorf("slot %s ends before it starts", s.ID)
		}
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate slot id %s", s.ID)
		}
		index[s.ID] = i
	}

	return &SlotCatalog{slots: ordered, index: index}, nil
}

// AllSlots returns the catalog in ascending time order.
func (c *SlotCatalog) AllSlots() []TimeSlot {
	out := make([]TimeSlot, len(c.slots))
	copy(out, c.slots)
	return out
}

// IndexOf returns the position of a slot in the day, or -1 when the
// id is not part of the catalog.
func (c *SlotCatalog) IndexOf(id uuid.UUID) int {
	i, ok := c.index[id]
	if !ok {
		return -1
	}
	return i
}

// At returns the slot at position i.
func (c *SlotCatalog) At(i int) TimeSlot {
	return c.slots[i]
}

func (c *SlotCatalog) Len() int {
	return len(c.slots)
}

// SlotLength is the fixed block duration, taken from the first slot.
func (c *SlotCatalog) SlotLength() time.Duration {
	return c.slots[0].EndOffset - c.slots[0].StartOffset
}

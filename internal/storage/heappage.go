package storage

import (
	"fmt"
	"math/bits"
)

// ───────────────────────────────────────────────────────────────────────────
// Heap page
// ───────────────────────────────────────────────────────────────────────────
//
// A heap page stores fixed-width rows behind a bitmap slot directory:
//
//   [0 .. ⌈capacity/8⌉)      occupancy bitmap, one bit per slot
//   ...                      gap (deterministic, may be empty)
//   [PageSize − capacity*W)  row area: capacity rows of width W, packed
//
// capacity is the largest c with c*(W*8) + c ≤ PageSize*8 — each row costs
// its width in bits plus one directory bit. The bit for slot s is bit
// 7−(s mod 8) of byte s/8 (MSB-first, so the bitmap reads left to right).
// Rows sit flush against the end of the page, which fixes the gap between
// the bitmap and the row area.
//
// HeapPage is a view over a page buffer; it never copies the page.

// HeapPage overlays a page buffer with a bitmap-directory row layout.
type HeapPage struct {
	td       *TupleDesc
	capacity int
	header   []byte
	data     []byte
}

// NewHeapPage wraps a page buffer. The buffer must be PageSize bytes.
func NewHeapPage(page []byte, td *TupleDesc) *HeapPage {
	w := td.RowWidth()
	capacity := (PageSize * 8) / (w*8 + 1)
	headerSize := (capacity + 7) / 8
	dataOff := PageSize - capacity*w
	return &HeapPage{
		td:       td,
		capacity: capacity,
		header:   page[:headerSize],
		data:     page[dataOff:],
	}
}

// Capacity returns the number of slots on the page.
func (hp *HeapPage) Capacity() int { return hp.capacity }

func (hp *HeapPage) used(slot int) bool {
	return hp.header[slot/8]&(1<<(7-slot%8)) != 0
}

func (hp *HeapPage) setUsed(slot int, used bool) {
	mask := byte(1 << (7 - slot%8))
	if used {
		hp.header[slot/8] |= mask
	} else {
		hp.header[slot/8] &^= mask
	}
}

// Empty reports whether the slot is out of range or unoccupied.
func (hp *HeapPage) Empty(slot int) bool {
	return slot >= hp.capacity || !hp.used(slot)
}

// InsertTuple places the row at the first free slot, left to right, and
// reports whether it found one.
func (hp *HeapPage) InsertTuple(t Tuple) (bool, error) {
	if !hp.td.Compatible(t) {
		return false, fmt.Errorf("heap page insert: %w", ErrSchemaMismatch)
	}
	w := hp.td.RowWidth()
	for slot := 0; slot < hp.capacity; slot++ {
		if hp.used(slot) {
			continue
		}
		if err := hp.td.Serialize(hp.data[slot*w:], t); err != nil {
			return false, err
		}
		hp.setUsed(slot, true)
		return true, nil
	}
	return false, nil
}

// DeleteTuple clears the slot's directory bit and zeroes its row bytes.
func (hp *HeapPage) DeleteTuple(slot int) error {
	if slot >= hp.capacity {
		return fmt.Errorf("heap page delete: slot %d of %d: %w", slot, hp.capacity, ErrBadSlot)
	}
	if !hp.used(slot) {
		return fmt.Errorf("heap page delete: slot %d already empty: %w", slot, ErrBadSlot)
	}
	hp.setUsed(slot, false)
	w := hp.td.RowWidth()
	row := hp.data[slot*w : (slot+1)*w]
	for i := range row {
		row[i] = 0
	}
	return nil
}

// GetTuple deserializes the row in the given slot.
func (hp *HeapPage) GetTuple(slot int) (Tuple, error) {
	if slot >= hp.capacity {
		return Tuple{}, fmt.Errorf("heap page get: slot %d of %d: %w", slot, hp.capacity, ErrBadSlot)
	}
	if !hp.used(slot) {
		return Tuple{}, fmt.Errorf("heap page get: slot %d empty: %w", slot, ErrBadSlot)
	}
	w := hp.td.RowWidth()
	return hp.td.Deserialize(hp.data[slot*w:]), nil
}

// Begin returns the first occupied slot, or End() if the page is empty.
func (hp *HeapPage) Begin() int {
	for slot := 0; slot < hp.capacity; slot++ {
		if hp.used(slot) {
			return slot
		}
	}
	return hp.End()
}

// End returns the one-past-last slot sentinel (the capacity).
func (hp *HeapPage) End() int { return hp.capacity }

// Next returns the next occupied slot after `slot`, or End().
func (hp *HeapPage) Next(slot int) int {
	for slot++; slot < hp.capacity; slot++ {
		if hp.used(slot) {
			return slot
		}
	}
	return hp.End()
}

// OccupiedCount returns the number of live rows (the bitmap popcount).
func (hp *HeapPage) OccupiedCount() int {
	n := 0
	full := hp.capacity / 8
	for _, b := range hp.header[:full] {
		n += bits.OnesCount8(b)
	}
	if rem := hp.capacity % 8; rem != 0 {
		// Mask off directory bits past the capacity.
		b := hp.header[full] >> (8 - rem) << (8 - rem)
		n += bits.OnesCount8(b)
	}
	return n
}

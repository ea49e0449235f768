package storage

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// ───────────────────────────────────────────────────────────────────────────
// Leaf page — B+Tree leaf node
// ───────────────────────────────────────────────────────────────────────────
//
// Layout:
//
//   [0:4]   size       uint32 LE — occupied row prefix length
//   [4:8]   nextLeaf   uint32 LE — page index of the right sibling
//   [8:..]  rows       size packed rows, sorted by the indexed key
//
// nextLeaf == 0 means "no successor". The sentinel is safe because page 0
// is always the tree's root index page, so no leaf ever lives there.
//
// LeafPage is a view over a page buffer; it never copies the page.

const leafHeaderSize = 8

// LeafPage overlays a page buffer with the leaf-node layout.
type LeafPage struct {
	buf      []byte
	td       *TupleDesc
	keyField int
	capacity int
}

// NewLeafPage wraps a page buffer. If the stored size exceeds the computed
// capacity the page is treated as uninitialized and its header zeroed,
// which is how a freshly allocated zero page enters service as an empty
// leaf.
func NewLeafPage(page []byte, td *TupleDesc, keyField int) *LeafPage {
	lp := &LeafPage{
		buf:      page,
		td:       td,
		keyField: keyField,
		capacity: (PageSize - leafHeaderSize) / td.RowWidth(),
	}
	if lp.Size() > lp.capacity {
		lp.setSize(0)
		lp.SetNextLeaf(0)
	}
	return lp
}

// Capacity returns the number of rows the leaf can hold.
func (lp *LeafPage) Capacity() int { return lp.capacity }

// Size returns the number of occupied rows.
func (lp *LeafPage) Size() int {
	return int(binary.LittleEndian.Uint32(lp.buf[0:4]))
}

func (lp *LeafPage) setSize(n int) {
	binary.LittleEndian.PutUint32(lp.buf[0:4], uint32(n))
}

// NextLeaf returns the right sibling's page index, or 0 for none.
func (lp *LeafPage) NextLeaf() int {
	return int(binary.LittleEndian.Uint32(lp.buf[4:8]))
}

// SetNextLeaf records the right sibling's page index.
func (lp *LeafPage) SetNextLeaf(page int) {
	binary.LittleEndian.PutUint32(lp.buf[4:8], uint32(page))
}

func (lp *LeafPage) rowOff(slot int) int {
	return leafHeaderSize + slot*lp.td.RowWidth()
}

// KeyAt returns the indexed key of the row in `slot`, read directly from
// the row bytes.
func (lp *LeafPage) KeyAt(slot int) int32 {
	off, _ := lp.td.OffsetOf(lp.keyField)
	return int32(binary.LittleEndian.Uint32(lp.buf[lp.rowOff(slot)+off:]))
}

// InsertTuple upserts the row by its key, keeping the rows sorted. The
// return value reports whether the page needs a split: true whenever the
// page is full after the call — because this insertion filled it, because
// an overwrite landed on an already-full page, or because a new key was
// refused for lack of room. In the refused case the page is unmodified.
func (lp *LeafPage) InsertTuple(t Tuple) (bool, error) {
	if !lp.td.Compatible(t) {
		return false, fmt.Errorf("leaf insert: %w", ErrSchemaMismatch)
	}
	key, err := t.IntAt(lp.keyField)
	if err != nil {
		return false, err
	}
	n := lp.Size()
	pos := sort.Search(n, func(i int) bool { return lp.KeyAt(i) >= key })

	if pos < n && lp.KeyAt(pos) == key {
		if err := lp.td.Serialize(lp.buf[lp.rowOff(pos):], t); err != nil {
			return false, err
		}
		return n == lp.capacity, nil
	}
	if n == lp.capacity {
		return true, nil
	}
	copy(lp.buf[lp.rowOff(pos+1):lp.rowOff(n+1)], lp.buf[lp.rowOff(pos):lp.rowOff(n)])
	if err := lp.td.Serialize(lp.buf[lp.rowOff(pos):], t); err != nil {
		return false, err
	}
	lp.setSize(n + 1)
	return n+1 == lp.capacity, nil
}

// GetTuple deserializes the row in `slot`.
func (lp *LeafPage) GetTuple(slot int) (Tuple, error) {
	if slot >= lp.Size() {
		return Tuple{}, fmt.Errorf("leaf get: slot %d of %d: %w", slot, lp.Size(), ErrBadSlot)
	}
	return lp.td.Deserialize(lp.buf[lp.rowOff(slot):]), nil
}

// ContainsKey reports whether a row with the given key is present.
func (lp *LeafPage) ContainsKey(key int32) bool {
	n := lp.Size()
	pos := sort.Search(n, func(i int) bool { return lp.KeyAt(i) >= key })
	return pos < n && lp.KeyAt(pos) == key
}

// Clear empties the leaf. The sibling link is left for the caller to
// manage.
func (lp *LeafPage) Clear() {
	lp.setSize(0)
}

// Split moves the upper half of the rows into `right` and returns the key
// of right's first row as the separator. Unlike the index split, the
// separator stays stored (in the new leaf), since leaves hold the actual
// rows. The new leaf inherits this leaf's sibling link; relinking this
// leaf to the new one is the caller's job.
func (lp *LeafPage) Split(right *LeafPage) int32 {
	n := lp.Size()
	m := n / 2
	w := lp.td.RowWidth()
	copy(right.buf[leafHeaderSize:], lp.buf[lp.rowOff(m):lp.rowOff(m)+(n-m)*w])
	right.setSize(n - m)
	right.SetNextLeaf(lp.NextLeaf())
	lp.setSize(m)
	return right.KeyAt(0)
}

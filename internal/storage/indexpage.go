package storage

import "encoding/binary"

// ───────────────────────────────────────────────────────────────────────────
// Index page — B+Tree internal node
// ───────────────────────────────────────────────────────────────────────────
//
// Layout:
//
//   [0:4]   size              uint32 LE — number of live keys
//   [4]     childrenAreIndex  uint8 — 1 when children are internal pages,
//                             0 when they are leaves
//   [5:8]   padding
//   [8:..]  keys[capacity]    int32 LE
//   then    children[capacity+1] uint32 LE page indices
//
// A page with k live keys has exactly k+1 live children: children[i] leads
// to keys strictly below keys[i], children[i+1] to keys at or above it.
// Child refs are stored as uint32 on disk.
//
// IndexPage is a view over a page buffer; it never copies the page.

const (
	indexHeaderSize = 8
	indexKeySize    = 4
	childRefSize    = 4

	// IndexPageCapacity is the key capacity of an internal node. The extra
	// childRefSize in the numerator adjustment reserves room for the
	// (capacity+1)-th child ref.
	IndexPageCapacity = (PageSize - indexHeaderSize - childRefSize) / (indexKeySize + childRefSize)

	indexChildrenOff = indexHeaderSize + IndexPageCapacity*indexKeySize
)

// IndexPage overlays a page buffer with the internal-node layout.
type IndexPage struct {
	buf []byte
}

// NewIndexPage wraps a page buffer. If the stored size exceeds the
// capacity the page is treated as uninitialized: its size and children-kind
// flag are reset to zero (keys and child refs are left as they are).
func NewIndexPage(page []byte) *IndexPage {
	ip := &IndexPage{buf: page}
	if ip.Size() > IndexPageCapacity {
		ip.setSize(0)
		ip.SetChildrenAreIndex(false)
	}
	return ip
}

// Size returns the number of live keys.
func (ip *IndexPage) Size() int {
	return int(binary.LittleEndian.Uint32(ip.buf[0:4]))
}

func (ip *IndexPage) setSize(n int) {
	binary.LittleEndian.PutUint32(ip.buf[0:4], uint32(n))
}

// ChildrenAreIndex reports whether the children are internal pages (true)
// or leaf pages (false).
func (ip *IndexPage) ChildrenAreIndex() bool { return ip.buf[4] == 1 }

// SetChildrenAreIndex records the kind of the child pages.
func (ip *IndexPage) SetChildrenAreIndex(v bool) {
	if v {
		ip.buf[4] = 1
	} else {
		ip.buf[4] = 0
	}
}

// Key returns keys[i].
func (ip *IndexPage) Key(i int) int32 {
	off := indexHeaderSize + i*indexKeySize
	return int32(binary.LittleEndian.Uint32(ip.buf[off:]))
}

func (ip *IndexPage) setKey(i int, k int32) {
	off := indexHeaderSize + i*indexKeySize
	binary.LittleEndian.PutUint32(ip.buf[off:], uint32(k))
}

// Child returns children[i] as a page index.
func (ip *IndexPage) Child(i int) int {
	off := indexChildrenOff + i*childRefSize
	return int(binary.LittleEndian.Uint32(ip.buf[off:]))
}

func (ip *IndexPage) setChild(i int, page int) {
	off := indexChildrenOff + i*childRefSize
	binary.LittleEndian.PutUint32(ip.buf[off:], uint32(page))
}

// Insert places (key, child) with child as the right neighbour of key.
// It reports whether the page needs a split: true either when the page was
// already full (the insertion is refused; split first) or when this
// insertion made it exactly full.
func (ip *IndexPage) Insert(key int32, child int) bool {
	n := ip.Size()
	if n >= IndexPageCapacity {
		return true
	}
	pos := 0
	for pos < n && ip.Key(pos) < key {
		pos++
	}
	for i := n; i > pos; i-- {
		ip.setKey(i, ip.Key(i-1))
	}
	for i := n + 1; i > pos+1; i-- {
		ip.setChild(i, ip.Child(i-1))
	}
	ip.setKey(pos, key)
	ip.setChild(pos+1, child)
	ip.setSize(n + 1)
	return n+1 == IndexPageCapacity
}

// Split moves the right half of this page into `right` and returns the
// median key, which belongs in the parent and is stored in neither half.
func (ip *IndexPage) Split(right *IndexPage) int32 {
	n := ip.Size()
	m := n / 2
	median := ip.Key(m)
	count := n - m - 1
	for i := 0; i < count; i++ {
		right.setKey(i, ip.Key(m+1+i))
	}
	for i := 0; i <= count; i++ {
		right.setChild(i, ip.Child(m+1+i))
	}
	right.setSize(count)
	right.SetChildrenAreIndex(ip.ChildrenAreIndex())
	ip.setSize(m)
	return median
}

package storage

import "fmt"

// ───────────────────────────────────────────────────────────────────────────
// Buffer pool
// ───────────────────────────────────────────────────────────────────────────
//
// The buffer pool is a fixed table of frames, each holding one cached page.
// Two indexes sit on top of the table: a PageID → frame map for lookup, and
// an intrusive doubly-linked recency list threading the occupied frames
// from most-recent (head) to least-recent (tail). The tail is the next
// eviction victim.
//
// Frames are not pinned. Returned page buffers alias frame storage and are
// valid only until the next GetPage call that could evict — under the
// engine's single-threaded contract, callers finish with one page before
// requesting another.
//
// Writes reach disk only through Flush*, eviction of a dirty frame, or
// Close. Eviction write-back resolves the owning file through the catalog;
// evicting a dirty page of a removed file is a bug (ErrCatalogMissing).

// frame is one buffer-pool slot.
type frame struct {
	inUse bool
	dirty bool
	pid   PageID
	buf   []byte
	prev  *frame
	next  *frame
}

// fileSource resolves file names for page loads and write-backs. The
// Database's catalog implements it.
type fileSource interface {
	Get(name string) (DbFile, error)
}

// BufferPool is an LRU page cache shared by every file of a database.
type BufferPool struct {
	frames    []frame
	pageTable map[PageID]*frame
	head      *frame // most recently used
	tail      *frame // least recently used; next eviction victim
	files     fileSource
	evictions int
}

// newBufferPool creates a pool with the given frame count (DefaultNumFrames
// if capacity <= 0).
func newBufferPool(capacity int, files fileSource) *BufferPool {
	if capacity <= 0 {
		capacity = DefaultNumFrames
	}
	bp := &BufferPool{
		frames:    make([]frame, capacity),
		pageTable: make(map[PageID]*frame, capacity),
		files:     files,
	}
	for i := range bp.frames {
		bp.frames[i].buf = make([]byte, PageSize)
	}
	return bp
}

// NumFrames returns the pool capacity.
func (bp *BufferPool) NumFrames() int { return len(bp.frames) }

// Evictions returns the number of evictions performed so far.
func (bp *BufferPool) Evictions() int { return bp.evictions }

// GetPage returns the cached buffer for pid, loading it from the owning
// file on a miss and evicting the least-recently-used frame if the pool is
// full. The returned slice aliases frame storage; see the package note on
// reference validity.
func (bp *BufferPool) GetPage(pid PageID) ([]byte, error) {
	if f, ok := bp.pageTable[pid]; ok {
		bp.moveToFront(f)
		return f.buf, nil
	}

	f := bp.freeFrame()
	if f == nil {
		var err error
		if f, err = bp.evictOne(); err != nil {
			return nil, err
		}
	}

	file, err := bp.files.Get(pid.File)
	if err != nil {
		return nil, err
	}
	if err := file.ReadPage(f.buf, pid.Page); err != nil {
		return nil, err
	}
	f.inUse = true
	f.dirty = false
	f.pid = pid
	bp.pageTable[pid] = f
	bp.pushFront(f)
	return f.buf, nil
}

// MarkDirty sets the dirty bit on a resident page. It is a no-op for pages
// that are not resident.
func (bp *BufferPool) MarkDirty(pid PageID) {
	if f, ok := bp.pageTable[pid]; ok {
		f.dirty = true
	}
}

// IsDirty reports the dirty bit of a resident page.
func (bp *BufferPool) IsDirty(pid PageID) (bool, error) {
	f, ok := bp.pageTable[pid]
	if !ok {
		return false, fmt.Errorf("%v: %w", pid, ErrNotResident)
	}
	return f.dirty, nil
}

// Contains reports whether pid is resident.
func (bp *BufferPool) Contains(pid PageID) bool {
	_, ok := bp.pageTable[pid]
	return ok
}

// Discard drops a resident page without writing it back. Used to
// invalidate cached pages after external deletion.
func (bp *BufferPool) Discard(pid PageID) {
	f, ok := bp.pageTable[pid]
	if !ok {
		return
	}
	delete(bp.pageTable, pid)
	bp.unlink(f)
	f.inUse = false
	f.dirty = false
	f.pid = PageID{}
}

// FlushPage writes a resident dirty page back to its file and clears the
// dirty bit. Non-resident or clean pages are left alone.
func (bp *BufferPool) FlushPage(pid PageID) error {
	f, ok := bp.pageTable[pid]
	if !ok || !f.dirty {
		return nil
	}
	return bp.writeBack(f)
}

// FlushFile writes back every resident dirty page of the named file.
func (bp *BufferPool) FlushFile(name string) error {
	for i := range bp.frames {
		f := &bp.frames[i]
		if f.inUse && f.dirty && f.pid.File == name {
			if err := bp.writeBack(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// FlushAll writes back every resident dirty page.
func (bp *BufferPool) FlushAll() error {
	for i := range bp.frames {
		f := &bp.frames[i]
		if f.inUse && f.dirty {
			if err := bp.writeBack(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (bp *BufferPool) writeBack(f *frame) error {
	file, err := bp.files.Get(f.pid.File)
	if err != nil {
		return fmt.Errorf("write back %v: %w", f.pid, ErrCatalogMissing)
	}
	if err := file.WritePage(f.buf, f.pid.Page); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// freeFrame returns the first unused frame, or nil if every frame is
// occupied.
func (bp *BufferPool) freeFrame() *frame {
	for i := range bp.frames {
		if !bp.frames[i].inUse {
			return &bp.frames[i]
		}
	}
	return nil
}

// evictOne clears the LRU frame, writing it back first if dirty, and
// returns it for reuse.
func (bp *BufferPool) evictOne() (*frame, error) {
	victim := bp.tail
	if victim == nil {
		return nil, fmt.Errorf("buffer pool full with empty recency list: %w", ErrInvariant)
	}
	if victim.dirty {
		if err := bp.writeBack(victim); err != nil {
			return nil, err
		}
	}
	delete(bp.pageTable, victim.pid)
	bp.unlink(victim)
	victim.inUse = false
	victim.dirty = false
	victim.pid = PageID{}
	bp.evictions++
	return victim, nil
}

// ── Recency list ──────────────────────────────────────────────────────────

func (bp *BufferPool) pushFront(f *frame) {
	f.prev = nil
	f.next = bp.head
	if bp.head != nil {
		bp.head.prev = f
	}
	bp.head = f
	if bp.tail == nil {
		bp.tail = f
	}
}

func (bp *BufferPool) unlink(f *frame) {
	if f.prev != nil {
		f.prev.next = f.next
	} else {
		bp.head = f.next
	}
	if f.next != nil {
		f.next.prev = f.prev
	} else {
		bp.tail = f.prev
	}
	f.prev = nil
	f.next = nil
}

func (bp *BufferPool) moveToFront(f *frame) {
	if bp.head == f {
		return
	}
	bp.unlink(f)
	bp.pushFront(f)
}

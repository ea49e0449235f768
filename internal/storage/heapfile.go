package storage

import "fmt"

// ───────────────────────────────────────────────────────────────────────────
// Heap file
// ───────────────────────────────────────────────────────────────────────────
//
// A heap file is an unordered sequence of heap pages. Insertion is a bump
// allocator: new rows always go to the last page, and when it is full a
// fresh zero page is appended. Earlier pages are never reconsidered, even
// when deletions free their slots. Iteration walks pages in order,
// skipping empty ones.
//
// All page access goes through the database's buffer pool; mutations mark
// the page dirty and reach disk on flush or eviction.

// HeapFile is an unordered file of fixed-schema rows.
type HeapFile struct {
	*blockFile
	db *Database
}

// NewHeapFile opens or creates a heap file backed by `name`. Add the file
// to the database's catalog before operating on it.
func NewHeapFile(db *Database, name string, td *TupleDesc) (*HeapFile, error) {
	bf, err := openBlockFile(name, td)
	if err != nil {
		return nil, err
	}
	return &HeapFile{blockFile: bf, db: db}, nil
}

// InsertTuple appends the row to the last page, allocating a fresh page
// when the last one is full.
func (hf *HeapFile) InsertTuple(t Tuple) error {
	pool := hf.db.BufferPool()
	last := hf.numPages - 1
	pid := PageID{File: hf.name, Page: last}
	buf, err := pool.GetPage(pid)
	if err != nil {
		return err
	}
	hp := NewHeapPage(buf, hf.td)
	ok, err := hp.InsertTuple(t)
	if err != nil {
		return err
	}
	if ok {
		pool.MarkDirty(pid)
		return nil
	}

	// Last page full: append a zero page and insert there.
	zero := make([]byte, PageSize)
	if err := hf.WritePage(zero, hf.numPages); err != nil {
		return err
	}
	pid = PageID{File: hf.name, Page: hf.numPages - 1}
	if buf, err = pool.GetPage(pid); err != nil {
		return err
	}
	hp = NewHeapPage(buf, hf.td)
	if ok, err = hp.InsertTuple(t); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("insert into fresh heap page failed: %w", ErrInvariant)
	}
	pool.MarkDirty(pid)
	return nil
}

// DeleteTuple frees the slot the iterator points at.
func (hf *HeapFile) DeleteTuple(it Iterator) error {
	if it.Page >= hf.numPages {
		return fmt.Errorf("heap delete: page %d of %d: %w", it.Page, hf.numPages, ErrBadSlot)
	}
	pool := hf.db.BufferPool()
	pid := PageID{File: hf.name, Page: it.Page}
	buf, err := pool.GetPage(pid)
	if err != nil {
		return err
	}
	hp := NewHeapPage(buf, hf.td)
	if err := hp.DeleteTuple(it.Slot); err != nil {
		return err
	}
	pool.MarkDirty(pid)
	return nil
}

// GetTuple returns the row the iterator points at.
func (hf *HeapFile) GetTuple(it Iterator) (Tuple, error) {
	if it.Page >= hf.numPages {
		return Tuple{}, fmt.Errorf("heap get: page %d of %d: %w", it.Page, hf.numPages, ErrBadSlot)
	}
	buf, err := hf.db.BufferPool().GetPage(PageID{File: hf.name, Page: it.Page})
	if err != nil {
		return Tuple{}, err
	}
	return NewHeapPage(buf, hf.td).GetTuple(it.Slot)
}

// Begin returns an iterator at the first occupied slot of the earliest
// non-empty page, or End() if the file holds no rows.
func (hf *HeapFile) Begin() (Iterator, error) {
	pool := hf.db.BufferPool()
	for page := 0; page < hf.numPages; page++ {
		buf, err := pool.GetPage(PageID{File: hf.name, Page: page})
		if err != nil {
			return Iterator{}, err
		}
		hp := NewHeapPage(buf, hf.td)
		if slot := hp.Begin(); slot != hp.End() {
			return Iterator{Page: page, Slot: slot}, nil
		}
	}
	return hf.End(), nil
}

// End returns the end sentinel (NumPages, 0).
func (hf *HeapFile) End() Iterator { return Iterator{Page: hf.numPages, Slot: 0} }

// Next advances the iterator to the following occupied slot, crossing page
// boundaries and skipping empty pages.
func (hf *HeapFile) Next(it *Iterator) error {
	if it.Page >= hf.numPages {
		*it = hf.End()
		return nil
	}
	pool := hf.db.BufferPool()
	buf, err := pool.GetPage(PageID{File: hf.name, Page: it.Page})
	if err != nil {
		return err
	}
	hp := NewHeapPage(buf, hf.td)
	if slot := hp.Next(it.Slot); slot != hp.End() {
		it.Slot = slot
		return nil
	}
	for page := it.Page + 1; page < hf.numPages; page++ {
		if buf, err = pool.GetPage(PageID{File: hf.name, Page: page}); err != nil {
			return err
		}
		hp = NewHeapPage(buf, hf.td)
		if slot := hp.Begin(); slot != hp.End() {
			it.Page = page
			it.Slot = slot
			return nil
		}
	}
	*it = hf.End()
	return nil
}

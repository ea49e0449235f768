package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestHeapFile_AppendAllocatesSecondPage(t *testing.T) {
	_, hf := newHeap(t, 0)
	perPage := NewHeapPage(make([]byte, PageSize), hf.TupleDesc()).Capacity()

	total := perPage + 1
	for i := 0; i < total; i++ {
		if err := hf.InsertTuple(NewTuple(int32(i), "apple", 1.0)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if hf.NumPages() != 2 {
		t.Fatalf("num pages: got %d want 2", hf.NumPages())
	}

	seen := make(map[int32]bool, total)
	it, err := hf.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for it != hf.End() {
		tup, err := hf.GetTuple(it)
		if err != nil {
			t.Fatalf("get %v: %v", it, err)
		}
		id, _ := tup.IntAt(0)
		if seen[id] {
			t.Fatalf("id %d visited twice", id)
		}
		seen[id] = true
		if err := hf.Next(&it); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	if len(seen) != total {
		t.Fatalf("visited %d rows, want %d", len(seen), total)
	}
}

func TestHeapFile_EmptyIteration(t *testing.T) {
	_, hf := newHeap(t, 0)
	it, err := hf.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if it != hf.End() {
		t.Fatalf("empty file: begin %v != end %v", it, hf.End())
	}
}

func TestHeapFile_DeleteDoesNotReclaimEarlierPages(t *testing.T) {
	_, hf := newHeap(t, 0)
	perPage := NewHeapPage(make([]byte, PageSize), hf.TupleDesc()).Capacity()

	// One row past a full page, so page 1 exists and page 0 is an earlier
	// page.
	for i := 0; i <= perPage; i++ {
		if err := hf.InsertTuple(NewTuple(int32(i), "a", 0.0)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	// Free a slot on page 0, then insert: the bump allocator must keep
	// using the last page rather than revisit page 0.
	if err := hf.DeleteTuple(Iterator{Page: 0, Slot: 0}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := hf.InsertTuple(NewTuple(int32(perPage+1), "b", 0.0)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if hf.NumPages() != 2 {
		t.Fatalf("num pages: got %d want 2", hf.NumPages())
	}
	if _, err := hf.GetTuple(Iterator{Page: 0, Slot: 0}); !errors.Is(err, ErrBadSlot) {
		t.Fatalf("freed slot on page 0: got %v, want ErrBadSlot (not reclaimed)", err)
	}
}

func TestHeapFile_PopcountMatchesLiveRows(t *testing.T) {
	db, hf := newHeap(t, 0)
	perPage := NewHeapPage(make([]byte, PageSize), hf.TupleDesc()).Capacity()
	inserted := perPage + 10
	for i := 0; i < inserted; i++ {
		if err := hf.InsertTuple(NewTuple(int32(i), "c", 0.0)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	deleted := 0
	for _, it := range []Iterator{{Page: 0, Slot: 3}, {Page: 1, Slot: 0}} {
		if err := hf.DeleteTuple(it); err != nil {
			t.Fatalf("delete %v: %v", it, err)
		}
		deleted++
	}

	pool := db.BufferPool()
	live := 0
	for p := 0; p < hf.NumPages(); p++ {
		buf, err := pool.GetPage(PageID{File: hf.Name(), Page: p})
		if err != nil {
			t.Fatalf("get page %d: %v", p, err)
		}
		live += NewHeapPage(buf, hf.TupleDesc()).OccupiedCount()
	}
	if live != inserted-deleted {
		t.Fatalf("popcount sum: got %d want %d", live, inserted-deleted)
	}
}

func TestHeapFile_IterationSkipsEmptiedPage(t *testing.T) {
	_, hf := newHeap(t, 0)
	perPage := NewHeapPage(make([]byte, PageSize), hf.TupleDesc()).Capacity()
	total := 2*perPage + 1
	for i := 0; i < total; i++ {
		if err := hf.InsertTuple(NewTuple(int32(i), "d", 0.0)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	// Empty page 1 entirely; iteration must hop from page 0 to page 2.
	for s := 0; s < perPage; s++ {
		if err := hf.DeleteTuple(Iterator{Page: 1, Slot: s}); err != nil {
			t.Fatalf("delete slot %d: %v", s, err)
		}
	}

	count := 0
	var pages []int
	it, err := hf.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for it != hf.End() {
		if len(pages) == 0 || pages[len(pages)-1] != it.Page {
			pages = append(pages, it.Page)
		}
		count++
		if err := hf.Next(&it); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	if count != total-perPage {
		t.Fatalf("count: got %d want %d", count, total-perPage)
	}
	for _, p := range pages {
		if p == 1 {
			t.Fatal("iteration visited the emptied page")
		}
	}
}

func TestHeapFile_BadIterator(t *testing.T) {
	_, hf := newHeap(t, 0)
	if _, err := hf.GetTuple(Iterator{Page: 99, Slot: 0}); !errors.Is(err, ErrBadSlot) {
		t.Fatalf("get: got %v, want ErrBadSlot", err)
	}
	if err := hf.DeleteTuple(Iterator{Page: 99, Slot: 0}); !errors.Is(err, ErrBadSlot) {
		t.Fatalf("delete: got %v, want ErrBadSlot", err)
	}
}

func TestHeapFile_ReopenKeepsRows(t *testing.T) {
	db := NewDatabase(0)
	path := filepath.Join(t.TempDir(), "h.db")
	hf, err := NewHeapFile(db, path, testDesc(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := db.Add(hf); err != nil {
		t.Fatalf("add: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := hf.InsertTuple(NewTuple(int32(i), "persist", float64(i))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2 := NewDatabase(0)
	hf2, err := NewHeapFile(db2, path, testDesc(t))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := db2.Add(hf2); err != nil {
		t.Fatalf("add: %v", err)
	}
	defer db2.Close()

	count := 0
	it, err := hf2.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for it != hf2.End() {
		count++
		if err := hf2.Next(&it); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	if count != 10 {
		t.Fatalf("rows after reopen: got %d want 10", count)
	}
}

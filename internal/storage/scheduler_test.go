package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFlushScheduler_FlushesDirtyPages(t *testing.T) {
	db := NewDatabase(0)
	path := filepath.Join(t.TempDir(), "h.db")
	hf, err := NewHeapFile(db, path, testDesc(t))
	if err != nil {
		t.Fatalf("new heap: %v", err)
	}
	if err := db.Add(hf); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := hf.InsertTuple(NewTuple(int32(1), "timed", 1.0)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	s, err := NewFlushScheduler(db, "* * * * * *") // every second
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if raw[0] != 0 {
			return // flushed
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("scheduled flush never reached disk")
}

func TestFlushScheduler_RejectsBadSpec(t *testing.T) {
	db := NewDatabase(0)
	if _, err := NewFlushScheduler(db, "not a cron spec"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

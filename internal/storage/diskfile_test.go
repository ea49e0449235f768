package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBlockFile_CreateHasOnePage(t *testing.T) {
	td := testDesc(t)
	path := filepath.Join(t.TempDir(), "t.db")
	bf, err := openBlockFile(path, td)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer bf.Close()
	if bf.NumPages() != 1 {
		t.Fatalf("num pages: got %d want 1", bf.NumPages())
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() != PageSize {
		t.Fatalf("file size: got %d want %d", st.Size(), PageSize)
	}
	if len(bf.Reads()) != 0 || len(bf.Writes()) != 0 {
		t.Fatalf("fresh file logged I/O: reads=%d writes=%d", len(bf.Reads()), len(bf.Writes()))
	}
}

func TestBlockFile_RejectsPartialPage(t *testing.T) {
	td := testDesc(t)
	path := filepath.Join(t.TempDir(), "t.db")
	if err := os.WriteFile(path, make([]byte, PageSize+100), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := openBlockFile(path, td); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("got %v, want ErrCorruptFile", err)
	}
}

func TestBlockFile_WriteExtendsAndLogs(t *testing.T) {
	td := testDesc(t)
	bf, err := openBlockFile(filepath.Join(t.TempDir(), "t.db"), td)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer bf.Close()

	page := make([]byte, PageSize)
	page[0] = 0xAB
	if err := bf.WritePage(page, 3); err != nil {
		t.Fatalf("write: %v", err)
	}
	if bf.NumPages() != 4 {
		t.Fatalf("num pages after write at 3: got %d want 4", bf.NumPages())
	}

	got := make([]byte, PageSize)
	if err := bf.ReadPage(got, 3); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got[0] != 0xAB {
		t.Fatalf("read back: got %x want ab", got[0])
	}
	if len(bf.Writes()) != 1 || bf.Writes()[0] != 3 {
		t.Fatalf("write log: %v", bf.Writes())
	}
	if len(bf.Reads()) != 1 || bf.Reads()[0] != 3 {
		t.Fatalf("read log: %v", bf.Reads())
	}
}

func TestBlockFile_ReadPastEndZeroFills(t *testing.T) {
	td := testDesc(t)
	bf, err := openBlockFile(filepath.Join(t.TempDir(), "t.db"), td)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer bf.Close()

	id := bf.allocPage()
	if id != 1 {
		t.Fatalf("alloc: got page %d want 1", id)
	}
	buf := make([]byte, PageSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	if err := bf.ReadPage(buf, id); err != nil {
		t.Fatalf("read allocated page: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: %x", i, b)
		}
	}
}

func TestBlockFile_ReopenDerivesNumPages(t *testing.T) {
	td := testDesc(t)
	path := filepath.Join(t.TempDir(), "t.db")
	bf, err := openBlockFile(path, td)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := bf.WritePage(make([]byte, PageSize), 5); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := bf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	bf2, err := openBlockFile(path, td)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer bf2.Close()
	if bf2.NumPages() != 6 {
		t.Fatalf("num pages after reopen: got %d want 6", bf2.NumPages())
	}
}

// Package pagedb is a disk-backed, page-oriented storage engine for Go
// applications.
//
// pageDB stores fixed-schema rows in 4 KiB pages under two file
// organizations: an unordered heap file, and a B+Tree file ordered on a
// single INT column. A database is a catalog of named files sharing one
// buffer pool, which caches pages in memory with LRU eviction and
// write-back semantics.
//
// # Basic Usage
//
// Create a database, register a file, insert and iterate:
//
//	db := pagedb.NewDatabase(0) // default buffer pool size
//	defer db.Close()
//
//	td, _ := pagedb.NewTupleDesc(
//		[]pagedb.FieldType{pagedb.TypeInt, pagedb.TypeChar, pagedb.TypeDouble},
//		[]string{"id", "name", "price"},
//	)
//
//	f, _ := pagedb.NewBTreeFile(db, "products.db", td, 0)
//	db.Add(f)
//
//	f.InsertTuple(pagedb.NewTuple(int32(1), "apple", 1.25))
//
//	it, _ := f.Begin()
//	for it != f.End() {
//		row, _ := f.GetTuple(it)
//		fmt.Println(row.Field(0), row.Field(1), row.Field(2))
//		f.Next(&it)
//	}
//
// # Semantics
//
// B+Tree files upsert: inserting a key that already exists replaces its
// row. Heap files append to the last page and never reclaim earlier
// pages. Neither organization supports transactions or crash recovery;
// durability follows flush order (Database.FlushAll, Database.Close, or
// eviction of dirty pages).
//
// The engine is single-threaded by contract: drive one database from one
// goroutine, one operation at a time.
package pagedb

import "github.com/SimonWaldherr/pageDB/internal/storage"

// ============================================================================
// Core types — re-exported from internal/storage
// ============================================================================

type (
	// Database is a catalog of named files and their shared buffer pool.
	Database = storage.Database
	// BufferPool is the shared LRU page cache.
	BufferPool = storage.BufferPool
	// DbFile is the polymorphic file surface (heap or B+Tree).
	DbFile = storage.DbFile
	// HeapFile is an unordered file of rows.
	HeapFile = storage.HeapFile
	// BTreeFile is a file of rows ordered on one INT column.
	BTreeFile = storage.BTreeFile
	// Tuple is an ordered sequence of field values.
	Tuple = storage.Tuple
	// TupleDesc describes a fixed-width row layout.
	TupleDesc = storage.TupleDesc
	// Iterator addresses one row of a file.
	Iterator = storage.Iterator
	// FieldType identifies the kind of a schema field.
	FieldType = storage.FieldType
	// PageID names one page of one file.
	PageID = storage.PageID
	// Stats aggregates page counts and I/O logs across files.
	Stats = storage.Stats
	// FlushScheduler drives periodic flushes on a CRON schedule.
	FlushScheduler = storage.FlushScheduler
)

// Field kinds and sizes.
const (
	TypeInt    = storage.TypeInt
	TypeChar   = storage.TypeChar
	TypeDouble = storage.TypeDouble

	IntSize    = storage.IntSize
	DoubleSize = storage.DoubleSize
	CharSize   = storage.CharSize

	// PageSize is the fixed page size in bytes.
	PageSize = storage.PageSize
	// DefaultNumFrames is the default buffer pool capacity.
	DefaultNumFrames = storage.DefaultNumFrames
)

// Error values.
var (
	ErrCorruptFile        = storage.ErrCorruptFile
	ErrSchemaMismatch     = storage.ErrSchemaMismatch
	ErrNameExists         = storage.ErrNameExists
	ErrNoSuchFile         = storage.ErrNoSuchFile
	ErrNotResident        = storage.ErrNotResident
	ErrCatalogMissing     = storage.ErrCatalogMissing
	ErrBadSlot            = storage.ErrBadSlot
	ErrDeleteNotSupported = storage.ErrDeleteNotSupported
)

// ============================================================================
// Constructors
// ============================================================================

// NewDatabase creates a database whose buffer pool holds `frames` frames
// (DefaultNumFrames if frames <= 0).
func NewDatabase(frames int) *Database { return storage.NewDatabase(frames) }

// NewTuple builds a tuple from the given field values (int32, float64, or
// string).
func NewTuple(values ...any) Tuple { return storage.NewTuple(values...) }

// NewTupleDesc builds a schema from parallel kind and name sequences.
func NewTupleDesc(types []FieldType, names []string) (*TupleDesc, error) {
	return storage.NewTupleDesc(types, names)
}

// MergeTupleDescs concatenates two schemas, failing on name collisions.
func MergeTupleDescs(a, b *TupleDesc) (*TupleDesc, error) {
	return storage.MergeTupleDescs(a, b)
}

// NewHeapFile opens or creates a heap file. Register it with db.Add before
// operating on it.
func NewHeapFile(db *Database, name string, td *TupleDesc) (*HeapFile, error) {
	return storage.NewHeapFile(db, name, td)
}

// NewBTreeFile opens or creates a B+Tree file keyed on the keyField-th
// column, which must be an INT. Register it with db.Add before operating
// on it.
func NewBTreeFile(db *Database, name string, td *TupleDesc, keyField int) (*BTreeFile, error) {
	return storage.NewBTreeFile(db, name, td, keyField)
}

// NewFlushScheduler creates a scheduler that flushes db on the given CRON
// spec (six fields, with seconds).
func NewFlushScheduler(db *Database, spec string) (*FlushScheduler, error) {
	return storage.NewFlushScheduler(db, spec)
}

// Package storage implements a disk-backed, page-oriented storage engine
// for pageDB.
//
// A database is a collection of named files sharing one buffer pool. Every
// file is an array of fixed-size pages (4 KiB) and comes in one of two
// organizations: an unordered heap file of fixed-schema rows, or a B+Tree
// file ordered on a single INT column. All page reads and writes go through
// the buffer pool, which caches pages in frames with LRU eviction and
// write-back on eviction or flush.
//
// The on-disk structures are byte overlays: the heap, leaf, and index page
// types reinterpret the cached page buffer in place rather than copying it.
// All multi-byte on-disk values are little-endian.
package storage

import "fmt"

// ───────────────────────────────────────────────────────────────────────────
// Constants
// ───────────────────────────────────────────────────────────────────────────

const (
	// PageSize is the size of every page in bytes. All on-disk structures
	// are page-aligned; no structure straddles a page boundary.
	PageSize = 4096

	// DefaultNumFrames is the default buffer pool capacity in frames.
	DefaultNumFrames = 50
)

// Fixed field widths in bytes.
const (
	IntSize    = 4
	DoubleSize = 8
	CharSize   = 64
)

// ───────────────────────────────────────────────────────────────────────────
// Field types
// ───────────────────────────────────────────────────────────────────────────

// FieldType identifies the kind of a schema field.
type FieldType uint8

const (
	TypeInt    FieldType = iota // 4-byte signed integer
	TypeChar                    // 64-byte zero-padded string
	TypeDouble                  // 8-byte IEEE-754 float
)

// Size returns the fixed on-disk width of the field type in bytes.
func (ft FieldType) Size() int {
	switch ft {
	case TypeInt:
		return IntSize
	case TypeChar:
		return CharSize
	case TypeDouble:
		return DoubleSize
	default:
		panic(fmt.Sprintf("unknown field type %d", uint8(ft)))
	}
}

// String returns a human-readable label for the field type.
func (ft FieldType) String() string {
	switch ft {
	case TypeInt:
		return "INT"
	case TypeChar:
		return "CHAR"
	case TypeDouble:
		return "DOUBLE"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(ft))
	}
}

// ───────────────────────────────────────────────────────────────────────────
// Page identity
// ───────────────────────────────────────────────────────────────────────────

// PageID names one page of one file. Pages are referentially distinct
// across files; page indices are zero-based.
type PageID struct {
	File string
	Page int
}

func (pid PageID) String() string {
	return fmt.Sprintf("%s:%d", pid.File, pid.Page)
}

package storage

import "errors"

var (
	// ErrCorruptFile is returned when a backing file's size is not a
	// positive multiple of PageSize.
	ErrCorruptFile = errors.New("storage: corrupt file")

	// ErrSchemaMismatch is returned when a tuple's arity or field kinds do
	// not match the schema it is used with.
	ErrSchemaMismatch = errors.New("storage: tuple incompatible with schema")

	// ErrNameExists is returned when adding a file whose name is already
	// registered in the catalog.
	ErrNameExists = errors.New("storage: file name already exists")

	// ErrNoSuchFile is returned when looking up a file name that is not in
	// the catalog.
	ErrNoSuchFile = errors.New("storage: no such file")

	// ErrNotResident is returned by dirty-bit queries for pages that are
	// not cached in the buffer pool.
	ErrNotResident = errors.New("storage: page not resident")

	// ErrCatalogMissing reports an eviction that needs to write back a page
	// whose owning file has been removed from the catalog. The correct
	// removal sequence flushes first; hitting this is a program bug.
	ErrCatalogMissing = errors.New("storage: owning file missing from catalog")

	// ErrBadSlot is returned for slot accesses that are out of range or
	// target an empty slot.
	ErrBadSlot = errors.New("storage: bad slot")

	// ErrDeleteNotSupported is returned by B+Tree files, which do not
	// support deletion.
	ErrDeleteNotSupported = errors.New("storage: delete not supported")

	// ErrInvariant reports a broken internal invariant. It indicates a bug
	// in the engine, not a caller error.
	ErrInvariant = errors.New("storage: invariant violation")
)

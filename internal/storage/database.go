package storage

import "fmt"

// ───────────────────────────────────────────────────────────────────────────
// Database — catalog + buffer pool
// ───────────────────────────────────────────────────────────────────────────
//
// A Database is the name→file catalog and the buffer pool it shares with
// its files. The catalog owns the files: Add transfers ownership in,
// Remove flushes the file's cached pages and transfers ownership back out.
// The buffer pool resolves owning files through the catalog during loads
// and eviction write-backs.
//
// The engine is single-threaded by contract: one agent drives a Database
// at a time, and every operation runs to completion before the next.

// Database is a collection of named files and their shared buffer pool.
type Database struct {
	files map[string]DbFile
	pool  *BufferPool
}

// Stats is an aggregate over the catalog's files.
type Stats struct {
	Files     int
	Pages     int
	Reads     int
	Writes    int
	Evictions int
}

// NewDatabase creates a database whose buffer pool holds `frames` frames
// (DefaultNumFrames if frames <= 0).
func NewDatabase(frames int) *Database {
	db := &Database{files: make(map[string]DbFile)}
	db.pool = newBufferPool(frames, db)
	return db
}

// BufferPool returns the database's buffer pool.
func (db *Database) BufferPool() *BufferPool { return db.pool }

// Add registers a file under its name. The database takes ownership.
func (db *Database) Add(f DbFile) error {
	name := f.Name()
	if _, exists := db.files[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrNameExists)
	}
	db.files[name] = f
	return nil
}

// Remove flushes the file's dirty pages, erases the catalog entry, and
// returns the file to the caller, who now owns (and should close) it.
func (db *Database) Remove(name string) (DbFile, error) {
	f, exists := db.files[name]
	if !exists {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSuchFile)
	}
	if err := db.pool.FlushFile(name); err != nil {
		return nil, err
	}
	delete(db.files, name)
	return f, nil
}

// Get returns the named file. The catalog keeps ownership.
func (db *Database) Get(name string) (DbFile, error) {
	f, exists := db.files[name]
	if !exists {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSuchFile)
	}
	return f, nil
}

// FlushAll writes back every dirty cached page.
func (db *Database) FlushAll() error {
	return db.pool.FlushAll()
}

// Close flushes all dirty pages and closes every file. The database must
// not be used afterwards.
func (db *Database) Close() error {
	if err := db.pool.FlushAll(); err != nil {
		return err
	}
	var firstErr error
	for name, f := range db.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(db.files, name)
	}
	return firstErr
}

// Stats aggregates page counts and I/O logs across all files.
func (db *Database) Stats() Stats {
	s := Stats{Evictions: db.pool.Evictions()}
	for _, f := range db.files {
		s.Files++
		s.Pages += f.NumPages()
		s.Reads += len(f.Reads())
		s.Writes += len(f.Writes())
	}
	return s
}

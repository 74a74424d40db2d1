// Package minidb is an embedded, single-process record store: a
// fixed-schema table of rows, durable on disk, queryable by primary
// key, and safe for concurrent use within one process.
//
// Durability comes from an append-only write-ahead log of mutations
// plus periodic compaction into a full-table snapshot. On startup the
// snapshot is loaded and the log replayed on top of it, reproducing
// the table as of the last acknowledged write.
//
// Example usage:
//
//	db, err := minidb.Open("/path/to/data", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Insert(1, "alice", 30); err != nil {
//		log.Printf("insert failed: %v", err)
//	}
//
//	row, found := db.SelectByID(1)
//	if found {
//		fmt.Printf("%d %s %d\n", row.ID, row.Name, row.Age)
//	}
package minidb

import (
	"sync"

	"github.com/Jatti045/mini-db/internal/config"
	"github.com/Jatti045/mini-db/internal/engine"
	"github.com/Jatti045/mini-db/internal/record"
	"github.com/Jatti045/mini-db/internal/snapshot"
)

// Config is an alias for config.Config, re-exported for user convenience.
type Config = config.Config

// DefaultConfig returns a Config populated with default values. Re-exported
// for user convenience.
var DefaultConfig = config.DefaultConfig

// LoadConfigFile reads a YAML config file. Re-exported for user convenience.
var LoadConfigFile = config.LoadFile

// Durability modes for Config.Durability.
const (
	DurabilityAlways    = config.DurabilityAlways
	DurabilityOnCompact = config.DurabilityOnCompact
	DurabilityNever     = config.DurabilityNever
)

// Row is a single table record.
type Row = record.Row

// Status is a read-only diagnostic summary of the store.
type Status = engine.Status

// DuplicateIDError reports an insert whose id already exists.
type DuplicateIDError = engine.DuplicateIDError

// ErrSnapshotCorrupt is returned from Open when a snapshot file is
// present but unreadable. The log cannot substitute for it, so the
// store refuses to start.
var ErrSnapshotCorrupt = snapshot.ErrCorrupt

// DB is a thread-safe handle to the store. All mutable engine state
// sits behind one reader-writer lock: read-only operations share
// access and may run concurrently, mutating operations are exclusive.
// Every read observes a state corresponding to some committed point in
// the mutation history, never a partially applied one.
//
// A single *DB is shared by all callers; the engine is never exposed
// directly.
type DB struct {
	mu     sync.RWMutex
	engine *engine.Engine
}

// Open opens or creates a store in the given data directory. The
// directory is created if it doesn't exist. A nil cfg uses defaults.
func Open(dir string, cfg *Config) (*DB, error) {
	e, err := engine.Open(dir, cfg)
	if err != nil {
		return nil, err
	}
	return &DB{engine: e}, nil
}

// Insert adds a new row. It fails with DuplicateIDError if the id is
// already present, leaving the table and the log unchanged.
func (db *DB) Insert(id uint32, name string, age uint8) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.engine.Insert(id, name, age)
}

// Delete removes the row with the given id. An absent id returns
// (false, nil), not an error.
func (db *DB) Delete(id uint32) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.engine.Delete(id)
}

// SelectByID returns the row with the given id, if present.
func (db *DB) SelectByID(id uint32) (Row, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.engine.SelectByID(id)
}

// SelectAll returns all rows in insertion-relative order.
func (db *DB) SelectAll() []Row {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.engine.SelectAll()
}

// Compact folds the log into a new snapshot and clears the log. It
// holds exclusive access for its entire duration; this is the one
// operation whose latency scales with table size while blocking all
// other access.
func (db *DB) Compact() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.engine.Compact()
}

// Status reports row count, log size, snapshot presence and last
// compaction time.
func (db *DB) Status() (Status, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.engine.Status()
}

// Verify rebuilds the table from disk into a scratch area and
// compares it against the live table, reporting any mismatch without
// mutating live state.
func (db *DB) Verify() error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.engine.Verify()
}

// Reset clears the table, truncates the log and removes the snapshot.
// It bypasses normal compaction semantics: history is discarded, not
// folded forward.
func (db *DB) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.engine.Reset()
}

// Close syncs and closes the underlying log. The handle must not be
// used afterwards.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.engine.Close()
}

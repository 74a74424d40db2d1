// Package engine implements the core store: boot and recovery, the
// write path, compaction and self-verification.
//
// The engine itself is not safe for concurrent use. All access goes
// through the reader-writer handle in the root package, which holds
// the single lock around every call.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Jatti045/mini-db/internal/config"
	"github.com/Jatti045/mini-db/internal/index"
	"github.com/Jatti045/mini-db/internal/record"
	"github.com/Jatti045/mini-db/internal/snapshot"
	"github.com/Jatti045/mini-db/internal/wal"
)

// table is the in-memory state: the live rows in insertion-relative
// order plus the derived id index. The two always mutate together.
type table struct {
	rows  []record.Row
	index *index.Index
}

func newTable(rows []record.Row) *table {
	return &table{rows: rows, index: index.Rebuild(rows)}
}

// apply folds one log entry into the table, mirroring the write path:
// duplicate inserts are skipped defensively, deletes of absent ids are
// no-ops, and the most recent mutation for an id wins.
func (t *table) apply(e record.Entry, logger *slog.Logger) {
	switch e.Type {
	case record.InsertEntry:
		if _, ok := t.index.Lookup(e.Row.ID); ok {
			logger.Warn("skipping duplicate insert during replay", "id", e.Row.ID)
			return
		}
		t.rows = append(t.rows, e.Row)
		t.index.Insert(e.Row.ID, len(t.rows)-1)
	case record.DeleteEntry:
		pos, ok := t.index.Lookup(e.ID)
		if !ok {
			return
		}
		t.rows = append(t.rows[:pos], t.rows[pos+1:]...)
		t.index.Remove(e.ID, pos)
	}
}

// Engine owns the table, the index and the handles to the log and
// snapshot, and executes all operations against them.
type Engine struct {
	dataDir string
	cfg     *config.Config
	logger  *slog.Logger

	tbl   *table
	wal   *wal.WAL
	codec snapshot.Codec

	lastCompaction time.Time
}

// Open boots the engine from dataDir: load the snapshot if present
// (a corrupt snapshot is fatal), replay the log on top, rebuild the
// index. The resulting table is exactly the state as of the last
// acknowledged write.
func Open(dataDir string, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	} else {
		// Work on a copy so the caller's Config is never mutated.
		cp := *cfg
		cfg = &cp
	}
	cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	codec, err := snapshot.ParseCodec(cfg.SnapshotCodec)
	if err != nil {
		return nil, err
	}

	// The log was rotated away after the last compaction, so a present
	// but unreadable snapshot is unrecoverable. Fail loudly instead of
	// silently starting empty.
	rows, found, err := snapshot.Read(dataDir)
	if err != nil {
		return nil, fmt.Errorf("refusing to start: %w", err)
	}
	if found {
		logger.Info("loaded snapshot", "rows", len(rows))
	}

	w, err := wal.Open(filepath.Join(dataDir, LogFileName),
		cfg.Durability == config.DurabilityAlways, logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		dataDir: dataDir,
		cfg:     cfg,
		logger:  logger,
		tbl:     newTable(rows),
		wal:     w,
		codec:   codec,
	}

	if err := w.Replay(func(en record.Entry) error {
		e.tbl.apply(en, logger)
		return nil
	}); err != nil {
		_ = w.Close()
		return nil, err
	}

	// If replay stopped at a torn tail, trim it now. Otherwise the
	// next append would glue onto the partial line and every write
	// acknowledged after recovery would be lost on the next restart.
	if err := w.Repair(); err != nil {
		_ = w.Close()
		return nil, err
	}

	return e, nil
}

// Insert adds a new row. It fails with DuplicateIDError if the id is
// already present, leaving both the table and the log untouched. The
// log append happens before the in-memory mutation, so a failed
// append never reaches the table.
func (e *Engine) Insert(id uint32, name string, age uint8) error {
	if _, ok := e.tbl.index.Lookup(id); ok {
		return DuplicateIDError{ID: id}
	}

	row := record.Row{ID: id, Name: name, Age: age}
	if err := e.wal.AppendInsert(row); err != nil {
		return err
	}

	e.tbl.rows = append(e.tbl.rows, row)
	e.tbl.index.Insert(id, len(e.tbl.rows)-1)

	e.maybeCompact()
	return nil
}

// Delete removes the row with the given id. An absent id is reported
// as (false, nil), not an error, and is not logged.
func (e *Engine) Delete(id uint32) (bool, error) {
	pos, ok := e.tbl.index.Lookup(id)
	if !ok {
		return false, nil
	}

	if err := e.wal.AppendDelete(id); err != nil {
		return false, err
	}

	e.tbl.rows = append(e.tbl.rows[:pos], e.tbl.rows[pos+1:]...)
	e.tbl.index.Remove(id, pos)

	e.maybeCompact()
	return true, nil
}

// SelectByID returns the row with the given id via an index lookup.
func (e *Engine) SelectByID(id uint32) (record.Row, bool) {
	pos, ok := e.tbl.index.Lookup(id)
	if !ok {
		return record.Row{}, false
	}
	return e.tbl.rows[pos], true
}

// SelectAll returns a copy of all rows in insertion-relative order.
func (e *Engine) SelectAll() []record.Row {
	out := make([]record.Row, len(e.tbl.rows))
	copy(out, e.tbl.rows)
	return out
}

// Reset clears the table and index, truncates the log and removes the
// snapshot. This bypasses normal compaction semantics: it is the one
// path that discards history instead of folding it forward.
func (e *Engine) Reset() error {
	if err := e.wal.Rotate(); err != nil {
		return err
	}
	// Without this a restart would resurrect rows from the snapshot.
	if err := snapshot.Remove(e.dataDir); err != nil {
		return err
	}

	e.tbl.rows = e.tbl.rows[:0]
	e.tbl.index.Clear()
	return nil
}

// Close syncs and closes the log.
func (e *Engine) Close() error {
	return e.wal.Close()
}

// Path returns the engine's data directory.
func (e *Engine) Path() string {
	return e.dataDir
}

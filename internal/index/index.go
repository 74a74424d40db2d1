// Package index provides the in-memory id index over the row table.
//
// The index maps each row id to its position in the engine's row
// slice. It is derived data: never persisted, rebuilt from snapshot
// plus log replay on boot, and kept in sync with the table inside the
// same critical section as every table mutation.
package index

import "github.com/Jatti045/mini-db/internal/record"

// Index maps row ids to positions in the row table.
type Index struct {
	pos map[uint32]int
}

// New creates an empty index.
func New() *Index {
	return &Index{pos: make(map[uint32]int)}
}

// Rebuild constructs a fresh index from a row slice, mapping each id
// to its current position.
func Rebuild(rows []record.Row) *Index {
	ix := &Index{pos: make(map[uint32]int, len(rows))}
	for i, row := range rows {
		ix.pos[row.ID] = i
	}
	return ix
}

// Lookup returns the table position for id.
func (ix *Index) Lookup(id uint32) (int, bool) {
	p, ok := ix.pos[id]
	return p, ok
}

// Insert records the position of a newly inserted row.
func (ix *Index) Insert(id uint32, pos int) {
	ix.pos[id] = pos
}

// Remove drops id from the index and shifts every position after pos
// down by one, matching the row slice contraction after a delete.
func (ix *Index) Remove(id uint32, pos int) {
	delete(ix.pos, id)
	for k, p := range ix.pos {
		if p > pos {
			ix.pos[k] = p - 1
		}
	}
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int {
	return len(ix.pos)
}

// Clear empties the index.
func (ix *Index) Clear() {
	ix.pos = make(map[uint32]int)
}

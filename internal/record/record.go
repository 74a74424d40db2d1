// Package record defines the row model and the wire form of log entries.
package record

import (
	"encoding/json"
	"fmt"
)

// Row is a single table record. Rows are immutable once stored: the
// engine replaces a row only by delete-then-insert, never in place.
type Row struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
	Age  uint8  `json:"age"`
}

// EntryType represents the kind of mutation recorded in a log entry
type EntryType byte

const (
	// InsertEntry records the insertion of a full row
	InsertEntry EntryType = iota
	// DeleteEntry records the deletion of a row by id
	DeleteEntry
)

// Entry is one tagged mutation in the write-ahead log. For
// InsertEntry the Row field holds the inserted row; for DeleteEntry
// the ID field holds the deleted id.
type Entry struct {
	Type EntryType
	Row  Row
	ID   uint32
}

// NewInsert returns an insert entry for the given row.
func NewInsert(row Row) Entry {
	return Entry{Type: InsertEntry, Row: row}
}

// NewDelete returns a delete entry for the given id.
func NewDelete(id uint32) Entry {
	return Entry{Type: DeleteEntry, ID: id}
}

type deleteBody struct {
	ID uint32 `json:"id"`
}

// wireEntry is the on-disk shape: a JSON object with exactly one of
// the two variant keys set, e.g. {"Insert":{"id":1,"name":"alice","age":30}}
// or {"Delete":{"id":1}}.
type wireEntry struct {
	Insert *Row        `json:"Insert,omitempty"`
	Delete *deleteBody `json:"Delete,omitempty"`
}

// MarshalJSON encodes the entry in its tagged wire form.
func (e Entry) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case InsertEntry:
		return json.Marshal(wireEntry{Insert: &e.Row})
	case DeleteEntry:
		return json.Marshal(wireEntry{Delete: &deleteBody{ID: e.ID}})
	default:
		return nil, fmt.Errorf("unknown entry type %d", e.Type)
	}
}

// UnmarshalJSON decodes an entry from its tagged wire form. An object
// carrying neither variant, or both, is malformed.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Insert != nil && w.Delete == nil:
		*e = Entry{Type: InsertEntry, Row: *w.Insert}
	case w.Delete != nil && w.Insert == nil:
		*e = Entry{Type: DeleteEntry, ID: w.Delete.ID}
	default:
		return fmt.Errorf("log entry is neither Insert nor Delete")
	}
	return nil
}

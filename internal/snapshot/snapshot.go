// Package snapshot persists point-in-time copies of the full table.
//
// A snapshot is the complete row set as of the last compaction,
// serialized as a JSON array (optionally s2-compressed) and written
// via temp-file-then-atomic-rename so that a crash at any point leaves
// either the old snapshot or the new one, never a partial file.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Jatti045/mini-db/internal/record"
	"github.com/klauspost/compress/s2"
)

const (
	// FileName is the snapshot file name inside the data directory.
	FileName = "snapshot.db"
	// tmpSuffix marks the in-progress snapshot. The temp file must
	// never be visible as a valid snapshot before the rename completes.
	tmpSuffix = ".tmp"
)

// ErrCorrupt reports a snapshot file that is present but unreadable.
// This is fatal at boot: the log is rotated away after each successful
// compaction, so it cannot substitute for a lost snapshot.
var ErrCorrupt = errors.New("snapshot file is corrupt")

// Codec selects how snapshot bytes are stored on disk.
type Codec uint8

const (
	// CodecNone stores the snapshot as plain JSON
	CodecNone Codec = iota
	// CodecS2 wraps the JSON in an s2-compressed stream
	CodecS2
)

// ParseCodec maps a configuration string to a Codec.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "none":
		return CodecNone, nil
	case "s2":
		return CodecS2, nil
	default:
		return CodecNone, fmt.Errorf("unknown snapshot codec %q", s)
	}
}

// Path returns the snapshot file path for a data directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Write serializes rows to a temporary file, forces it to durable
// storage, then atomically replaces the previous snapshot. A crash
// before the rename leaves the old snapshot intact; after it, the new
// one. No intermediate state is ever visible under the final name.
func Write(rows []record.Row, dir string, codec Codec) error {
	if rows == nil {
		rows = []record.Row{}
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if codec == CodecS2 {
		data = s2.Encode(nil, data)
	}

	path := Path(dir)
	tmpPath := path + tmpSuffix

	tmpFile, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	// Make the rename itself durable.
	return syncDir(dir)
}

// Read loads the snapshot from dir. An absent snapshot is not an
// error: found is false and the store starts from an empty table. A
// present but undecodable snapshot returns ErrCorrupt.
func Read(dir string) ([]record.Row, bool, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	// The codec is sniffed from the payload, so changing the configured
	// codec never orphans an existing snapshot: plain JSON is tried
	// first, then an s2-wrapped payload.
	rows, jsonErr := decodeRows(data)
	if jsonErr == nil {
		return rows, true, nil
	}
	decoded, s2Err := s2.Decode(nil, data)
	if s2Err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorrupt, jsonErr)
	}
	rows, jsonErr = decodeRows(decoded)
	if jsonErr != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorrupt, jsonErr)
	}
	return rows, true, nil
}

func decodeRows(data []byte) ([]record.Row, error) {
	var rows []record.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Remove deletes the snapshot file if present.
func Remove(dir string) error {
	if err := os.Remove(Path(dir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return nil
}

// Stat reports whether a snapshot file exists and its modification
// time, without reading it.
func Stat(dir string) (os.FileInfo, bool, error) {
	fi, err := os.Stat(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	return fi, true, nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open data directory: %w", err)
	}
	defer d.Close()

	if err := d.Sync(); err != nil {
		return fmt.Errorf("failed to sync data directory: %w", err)
	}
	return nil
}

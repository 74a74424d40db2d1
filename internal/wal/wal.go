// Package wal implements the append-only write-ahead log for durability.
package wal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/Jatti045/mini-db/internal/record"
)

// WAL manages the write-ahead log file. Entries are JSON values, one
// per line, appended in commit order. The log is never rewritten, only
// appended to or rotated as a whole.
type WAL struct {
	mu sync.Mutex

	path         string
	file         *os.File
	size         int64
	entries      int
	syncOnAppend bool
	logger       *slog.Logger

	// Set by Replay, consumed by Repair: validEnd is the byte offset
	// just past the last cleanly parsed line; torn marks a corrupt
	// tail after it; unterminated marks a final valid entry missing
	// its newline.
	validEnd     int64
	torn         bool
	unterminated bool
}

// Open opens or creates the log file at path. With syncOnAppend set,
// every append is forced to disk before it returns.
func Open(path string, syncOnAppend bool, logger *slog.Logger) (*WAL, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &WAL{
		path:         path,
		file:         file,
		size:         fileInfo.Size(),
		syncOnAppend: syncOnAppend,
		logger:       logger,
	}, nil
}

// AppendInsert appends an insert mutation to the log.
func (w *WAL) AppendInsert(row record.Row) error {
	return w.append(record.NewInsert(row))
}

// AppendDelete appends a delete mutation to the log.
func (w *WAL) AppendDelete(id uint32) error {
	return w.append(record.NewDelete(id))
}

func (w *WAL) append(e record.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode log entry: %w", err)
	}
	data = append(data, '\n')

	n, err := w.file.Write(data)
	if err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	w.size += int64(n)
	w.entries++

	if w.syncOnAppend {
		return w.sync()
	}
	return nil
}

// Replay streams entries from the start of the log file in append
// order, calling fn for each. A malformed line ends the replay: it is
// reported as a warning and everything before it is treated as the
// valid history. Replay is restartable from scratch but not seekable.
// It also records where the valid history ends so Repair can trim a
// corrupt tail before new appends are accepted.
func (w *WAL) Replay(fn func(record.Entry) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind log file: %w", err)
	}

	w.validEnd = 0
	w.torn = false
	w.unterminated = false

	replayed := 0
	lineNum := 0
	var offset int64
	reader := bufio.NewReader(w.file)
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("failed to read log file: %w", readErr)
		}
		if line != "" {
			lineNum++
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				var e record.Entry
				if err := json.Unmarshal([]byte(trimmed), &e); err != nil {
					// Likely a torn write from a crash mid-append. Entries
					// past this point are inaccessible and presumed lost.
					w.logger.Warn("stopping log replay at corrupt entry",
						"path", w.path, "line", lineNum, "error", err)
					w.torn = true
					break
				}
				if err := fn(e); err != nil {
					return err
				}
				replayed++
			}
			offset += int64(len(line))
			w.validEnd = offset
			if !strings.HasSuffix(line, "\n") {
				w.unterminated = true
			}
		}
		if readErr == io.EOF {
			break
		}
	}

	w.entries = replayed
	return nil
}

// Repair makes the log safe for further appends after a replay that
// stopped early: a corrupt tail is truncated away at the end of the
// last valid entry, and a final valid entry missing its newline gets
// one, so the next append can never glue onto a partial line. A no-op
// on a clean log.
func (w *WAL) Repair() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.torn && !w.unterminated {
		return nil
	}

	if w.torn {
		if err := w.file.Truncate(w.validEnd); err != nil {
			return fmt.Errorf("failed to truncate corrupt log tail: %w", err)
		}
		w.size = w.validEnd
		w.torn = false
	}
	if w.unterminated {
		n, err := w.file.Write([]byte{'\n'})
		if err != nil {
			return fmt.Errorf("failed to terminate log tail: %w", err)
		}
		w.size += int64(n)
		w.validEnd = w.size
		w.unterminated = false
	}
	return w.sync()
}

// Size returns the current byte size of the log file.
func (w *WAL) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Entries returns the number of entries in the current log: appends
// since the last rotation, plus whatever the last replay observed.
func (w *WAL) Entries() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.entries
}

// Sync forces all appended entries to durable storage.
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sync()
}

func (w *WAL) sync() error {
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return nil
}

// Rotate truncates the log to zero entries. Called by compaction once
// the new snapshot is confirmed durable.
func (w *WAL) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate log file: %w", err)
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind log file: %w", err)
	}
	w.size = 0
	w.entries = 0
	w.validEnd = 0
	w.torn = false
	w.unterminated = false
	return w.sync()
}

// Path returns the log file path.
func (w *WAL) Path() string {
	return w.path
}

// Close syncs and closes the log file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.sync(); err != nil {
		return err
	}
	return w.file.Close()
}

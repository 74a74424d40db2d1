package wal_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Jatti045/mini-db/internal/record"
	"github.com/Jatti045/mini-db/internal/wal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func replayAll(t *testing.T, w *wal.WAL) []record.Entry {
	t.Helper()
	var entries []record.Entry
	require.NoError(t, w.Replay(func(e record.Entry) error {
		entries = append(entries, e)
		return nil
	}))
	return entries
}

func TestWAL_AppendAndReplay(t *testing.T) {
	path := setup(t, "basic.log")

	w, err := wal.Open(path, true, nil)
	require.NoError(t, err)

	require.NoError(t, w.AppendInsert(record.Row{ID: 1, Name: "alice", Age: 30}))
	require.NoError(t, w.AppendInsert(record.Row{ID: 2, Name: "bob", Age: 25}))
	require.NoError(t, w.AppendDelete(1))
	require.NoError(t, w.Close())

	// Reopen and replay
	w, err = wal.Open(path, true, nil)
	require.NoError(t, err)
	defer w.Close()

	entries := replayAll(t, w)
	require.Len(t, entries, 3)

	assert.Equal(t, record.InsertEntry, entries[0].Type)
	assert.Equal(t, record.Row{ID: 1, Name: "alice", Age: 30}, entries[0].Row)
	assert.Equal(t, record.InsertEntry, entries[1].Type)
	assert.Equal(t, record.Row{ID: 2, Name: "bob", Age: 25}, entries[1].Row)
	assert.Equal(t, record.DeleteEntry, entries[2].Type)
	assert.Equal(t, uint32(1), entries[2].ID)

	assert.Equal(t, 3, w.Entries())
}

func TestWAL_EmptyReplay(t *testing.T) {
	path := setup(t, "empty.log")

	w, err := wal.Open(path, true, nil)
	require.NoError(t, err)
	defer w.Close()

	entries := replayAll(t, w)
	assert.Len(t, entries, 0)
	assert.Equal(t, int64(0), w.Size())
}

func TestWAL_ReplayIsRestartable(t *testing.T) {
	path := setup(t, "restart.log")

	w, err := wal.Open(path, true, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.AppendInsert(record.Row{ID: 1, Name: "a", Age: 1}))
	require.NoError(t, w.AppendInsert(record.Row{ID: 2, Name: "b", Age: 2}))

	first := replayAll(t, w)
	second := replayAll(t, w)
	assert.Equal(t, first, second)
}

func TestWAL_CorruptTrailingEntry(t *testing.T) {
	path := setup(t, "corrupt.log")

	w, err := wal.Open(path, true, nil)
	require.NoError(t, err)
	require.NoError(t, w.AppendInsert(record.Row{ID: 1, Name: "alice", Age: 30}))
	require.NoError(t, w.AppendInsert(record.Row{ID: 2, Name: "bob", Age: 25}))
	require.NoError(t, w.Close())

	// Simulate a torn write: a partial entry after the last complete one.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"Insert":{"id":3,"na`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w, err = wal.Open(path, true, nil)
	require.NoError(t, err)
	defer w.Close()

	// Replay must stop at the torn entry, not fail.
	entries := replayAll(t, w)
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(1), entries[0].Row.ID)
	assert.Equal(t, uint32(2), entries[1].Row.ID)
	assert.Equal(t, 2, w.Entries())
}

func TestWAL_EntriesAfterCorruptOneAreLost(t *testing.T) {
	path := setup(t, "mid-corrupt.log")

	require.NoError(t, os.WriteFile(path, []byte(
		`{"Insert":{"id":1,"name":"a","age":1}}`+"\n"+
			"not json\n"+
			`{"Insert":{"id":2,"name":"b","age":2}}`+"\n"), 0644))

	w, err := wal.Open(path, true, nil)
	require.NoError(t, err)
	defer w.Close()

	entries := replayAll(t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(1), entries[0].Row.ID)
}

func TestWAL_RepairTruncatesTornTail(t *testing.T) {
	path := setup(t, "repair.log")

	w, err := wal.Open(path, true, nil)
	require.NoError(t, err)
	require.NoError(t, w.AppendInsert(record.Row{ID: 1, Name: "alice", Age: 30}))
	require.NoError(t, w.Close())

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"Insert":{"id":2,"name":"bo`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w, err = wal.Open(path, true, nil)
	require.NoError(t, err)
	require.Len(t, replayAll(t, w), 1)
	require.NoError(t, w.Repair())

	// The torn bytes are gone: a fresh append lands on its own line.
	require.NoError(t, w.AppendInsert(record.Row{ID: 3, Name: "carol", Age: 40}))
	require.NoError(t, w.Close())

	w, err = wal.Open(path, true, nil)
	require.NoError(t, err)
	defer w.Close()

	entries := replayAll(t, w)
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(1), entries[0].Row.ID)
	assert.Equal(t, uint32(3), entries[1].Row.ID)
}

func TestWAL_RepairTerminatesUnterminatedTail(t *testing.T) {
	path := setup(t, "unterminated.log")

	// A complete final entry that lost its newline to a crash.
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"Insert":{"id":1,"name":"alice","age":30}}`), 0644))

	w, err := wal.Open(path, true, nil)
	require.NoError(t, err)
	require.Len(t, replayAll(t, w), 1)
	require.NoError(t, w.Repair())

	require.NoError(t, w.AppendInsert(record.Row{ID: 2, Name: "bob", Age: 25}))
	require.NoError(t, w.Close())

	w, err = wal.Open(path, true, nil)
	require.NoError(t, err)
	defer w.Close()

	entries := replayAll(t, w)
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(1), entries[0].Row.ID)
	assert.Equal(t, uint32(2), entries[1].Row.ID)
}

func TestWAL_RepairIsNoOpOnCleanLog(t *testing.T) {
	path := setup(t, "clean.log")

	w, err := wal.Open(path, true, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.AppendInsert(record.Row{ID: 1, Name: "a", Age: 1}))
	sizeBefore := w.Size()

	require.Len(t, replayAll(t, w), 1)
	require.NoError(t, w.Repair())

	assert.Equal(t, sizeBefore, w.Size())
	assert.Len(t, replayAll(t, w), 1)
}

func TestWAL_SkipsBlankLines(t *testing.T) {
	path := setup(t, "blank.log")

	require.NoError(t, os.WriteFile(path, []byte(
		"\n"+`{"Delete":{"id":9}}`+"\n\n"), 0644))

	w, err := wal.Open(path, true, nil)
	require.NoError(t, err)
	defer w.Close()

	entries := replayAll(t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, record.DeleteEntry, entries[0].Type)
}

func TestWAL_Rotate(t *testing.T) {
	path := setup(t, "rotate.log")

	w, err := wal.Open(path, true, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.AppendInsert(record.Row{ID: 1, Name: "a", Age: 1}))
	require.Greater(t, w.Size(), int64(0))
	require.Equal(t, 1, w.Entries())

	require.NoError(t, w.Rotate())
	assert.Equal(t, int64(0), w.Size())
	assert.Equal(t, 0, w.Entries())
	assert.Len(t, replayAll(t, w), 0)

	// The log is usable again after rotation.
	require.NoError(t, w.AppendInsert(record.Row{ID: 2, Name: "b", Age: 2}))
	entries := replayAll(t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(2), entries[0].Row.ID)
}

func TestWAL_NoSyncModeStillAppends(t *testing.T) {
	path := setup(t, "nosync.log")

	w, err := wal.Open(path, false, nil)
	require.NoError(t, err)

	require.NoError(t, w.AppendInsert(record.Row{ID: 1, Name: "a", Age: 1}))
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	w, err = wal.Open(path, false, nil)
	require.NoError(t, err)
	defer w.Close()
	assert.Len(t, replayAll(t, w), 1)
}

func TestWAL_InvalidPath(t *testing.T) {
	_, err := wal.Open("/nonexistent/directory/test.log", true, nil)
	assert.Error(t, err)
}

package engine

// LogFileName is the write-ahead log file name inside the data directory.
const LogFileName = "wal.log"

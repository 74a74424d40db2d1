// Command minidb is an interactive shell over the store. It translates
// typed commands into engine calls and formats results; it performs no
// table logic itself.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	minidb "github.com/Jatti045/mini-db"
	"github.com/Jatti045/mini-db/internal/parser"
)

const helpText = `Available commands:
  INSERT <id> <name> <age>
  SELECT
  SELECT WHERE ID=<id>
  DELETE WHERE ID=<id>
  EXEC BATCH <path>
  COMPACT
  STATUS
  VERIFY
  RESET
  HELP
  EXIT`

func main() {
	dataDir := flag.String("data", "data", "data directory")
	configPath := flag.String("config", "config.yml", "YAML config file")
	flag.Parse()

	cfg, err := initConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "minidb: %v\n", err)
		os.Exit(1)
	}
	initLogger(cfg)

	db, err := minidb.Open(*dataDir, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "minidb: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repl(db, os.Stdin, os.Stdout)
}

// initConfig loads the YAML config. A missing file is not an error:
// defaults apply.
func initConfig(path string) (*minidb.Config, error) {
	cfg, err := minidb.LoadConfigFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("config file not found, using defaults", "path", path)
			return minidb.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// initLogger sets the global slog handler (text or JSON) at the
// configured level. The store picks it up through slog.Default().
func initLogger(cfg *minidb.Config) {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	cfg.Logger = logger
}

func repl(db *minidb.DB, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		if !run(db, scanner.Text(), out) {
			return
		}
	}
}

// run executes one command line. It returns false when the session
// should end.
func run(db *minidb.DB, line string, out io.Writer) bool {
	cmd, err := parser.Parse(line)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return true
	}

	switch cmd.Kind {
	case parser.KindInsert:
		if err := db.Insert(cmd.ID, cmd.Name, cmd.Age); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		} else {
			fmt.Fprintf(out, "inserted row with id %d\n", cmd.ID)
		}

	case parser.KindSelectAll:
		rows := db.SelectAll()
		if len(rows) == 0 {
			fmt.Fprintln(out, "(no rows)")
			break
		}
		for _, r := range rows {
			printRow(out, r)
		}

	case parser.KindSelectByID:
		if row, found := db.SelectByID(cmd.ID); found {
			printRow(out, row)
		} else {
			fmt.Fprintf(out, "row with id %d not found\n", cmd.ID)
		}

	case parser.KindDeleteByID:
		deleted, err := db.Delete(cmd.ID)
		switch {
		case err != nil:
			fmt.Fprintf(out, "error: %v\n", err)
		case deleted:
			fmt.Fprintf(out, "row with id %d deleted\n", cmd.ID)
		default:
			fmt.Fprintf(out, "row with id %d not found\n", cmd.ID)
		}

	case parser.KindExecBatch:
		if err := execBatch(db, cmd.Path, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		} else {
			fmt.Fprintln(out, "batch executed")
		}

	case parser.KindCompact:
		if err := db.Compact(); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		} else {
			fmt.Fprintln(out, "compaction complete")
		}

	case parser.KindStatus:
		st, err := db.Status()
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			break
		}
		fmt.Fprintf(out, "rows: %d\nlog: %d bytes, %d entries\nsnapshot: %v\n",
			st.Rows, st.LogBytes, st.LogEntries, st.SnapshotPresent)
		if !st.LastCompaction.IsZero() {
			fmt.Fprintf(out, "last compaction: %s\n", st.LastCompaction.Format("2006-01-02 15:04:05"))
		}

	case parser.KindVerify:
		if err := db.Verify(); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		} else {
			fmt.Fprintln(out, "verify: ok")
		}

	case parser.KindReset:
		if err := db.Reset(); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		} else {
			fmt.Fprintln(out, "all data cleared")
		}

	case parser.KindHelp:
		fmt.Fprintln(out, helpText)

	case parser.KindExit:
		fmt.Fprintln(out, "bye")
		return false
	}
	return true
}

// execBatch runs commands from a file, one per line. Blank lines are
// skipped; individual command failures are printed and do not stop
// the batch.
func execBatch(db *minidb.DB, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !run(db, line, out) {
			break
		}
	}
	return scanner.Err()
}

func printRow(out io.Writer, r minidb.Row) {
	fmt.Fprintf(out, "%d\t%s\t%d\n", r.ID, r.Name, r.Age)
}

// Package parser turns textual commands into typed operations.
//
// The parser performs no table logic: it only validates command shape
// and converts arguments, leaving execution to the caller.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCommand reports input whose shape matches no command.
var ErrInvalidCommand = errors.New("invalid command syntax")

// ParseError reports a command with the right shape but a malformed
// argument, e.g. a non-numeric id.
type ParseError struct {
	Msg string
}

func (e ParseError) Error() string {
	return "failed to parse input: " + e.Msg
}

// Kind identifies a parsed command.
type Kind int

const (
	// KindInsert is INSERT <id> <name> <age>
	KindInsert Kind = iota
	// KindSelectAll is SELECT
	KindSelectAll
	// KindSelectByID is SELECT WHERE ID=<id>
	KindSelectByID
	// KindDeleteByID is DELETE WHERE ID=<id>
	KindDeleteByID
	// KindExecBatch is EXEC BATCH <path>
	KindExecBatch
	// KindCompact is COMPACT
	KindCompact
	// KindStatus is STATUS
	KindStatus
	// KindVerify is VERIFY
	KindVerify
	// KindReset is RESET
	KindReset
	// KindHelp is HELP
	KindHelp
	// KindExit is EXIT
	KindExit
)

// Command is a parsed command with its arguments. Only the fields
// relevant to the Kind are set.
type Command struct {
	Kind Kind
	ID   uint32
	Name string
	Age  uint8
	Path string
}

// Parse converts one input line into a Command. Keywords are
// case-insensitive; the name argument keeps its case.
func Parse(input string) (Command, error) {
	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		return Command{}, ErrInvalidCommand
	}

	switch strings.ToLower(tokens[0]) {
	case "insert":
		if len(tokens) != 4 {
			return Command{}, ErrInvalidCommand
		}
		id, err := parseID(tokens[1])
		if err != nil {
			return Command{}, err
		}
		age, err := strconv.ParseUint(tokens[3], 10, 8)
		if err != nil {
			return Command{}, ParseError{Msg: "age must be an integer in 0-255"}
		}
		return Command{Kind: KindInsert, ID: id, Name: tokens[2], Age: uint8(age)}, nil

	case "select":
		if len(tokens) == 1 {
			return Command{Kind: KindSelectAll}, nil
		}
		id, err := parseWhereID(tokens[1:])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindSelectByID, ID: id}, nil

	case "delete":
		if len(tokens) == 1 {
			return Command{}, ErrInvalidCommand
		}
		id, err := parseWhereID(tokens[1:])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindDeleteByID, ID: id}, nil

	case "exec":
		if len(tokens) != 3 || strings.ToLower(tokens[1]) != "batch" {
			return Command{}, ErrInvalidCommand
		}
		return Command{Kind: KindExecBatch, Path: tokens[2]}, nil

	case "compact":
		return singleWord(tokens, KindCompact)
	case "status":
		return singleWord(tokens, KindStatus)
	case "verify":
		return singleWord(tokens, KindVerify)
	case "reset":
		return singleWord(tokens, KindReset)
	case "help":
		return singleWord(tokens, KindHelp)
	case "exit":
		return singleWord(tokens, KindExit)
	default:
		return Command{}, ErrInvalidCommand
	}
}

func singleWord(tokens []string, kind Kind) (Command, error) {
	if len(tokens) != 1 {
		return Command{}, ErrInvalidCommand
	}
	return Command{Kind: kind}, nil
}

// parseWhereID handles the trailing "WHERE ID=<id>" clause.
func parseWhereID(tokens []string) (uint32, error) {
	if len(tokens) != 2 || strings.ToLower(tokens[0]) != "where" {
		return 0, ErrInvalidCommand
	}
	clause := strings.ToLower(tokens[1])
	if !strings.HasPrefix(clause, "id=") {
		return 0, ErrInvalidCommand
	}
	return parseID(tokens[1][len("id="):])
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, ParseError{Msg: fmt.Sprintf("id must be an unsigned integer, got %q", s)}
	}
	return uint32(id), nil
}

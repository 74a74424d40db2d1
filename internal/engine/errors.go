package engine

import "fmt"

// DuplicateIDError reports an insert whose id is already present in
// the table. Rejected inserts leave no trace in the log.
type DuplicateIDError struct {
	ID uint32
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate id %d", e.ID)
}

package roster

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrOrderMismatch  = errors.New("reordered view does not match store size")
)

// StoreError carries the operation and record a store failure relates to.
type StoreError struct {
	Op    string   // Operation that failed (e.g. "Append", "SetGrade")
	ID    RecordID // Record ID, or -1 when not applicable
	Cause error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID >= 0 {
		return fmt.Sprintf("%s record %d: %v", e.Op, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

func newStoreError(op string, id RecordID, cause error) *StoreError {
	return &StoreError{Op: op, ID: id, Cause: cause}
}

// IsNotFound reports whether err is or wraps ErrRecordNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}

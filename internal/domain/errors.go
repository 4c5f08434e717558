package domain

import (
	"errors"
	"fmt"
)

// Export error taxonomy. Handlers map each sentinel onto a fixed HTTP status.
var (
	ErrInvalidIdentifier    = errors.New("invalid identifier")
	ErrTableNotFound        = errors.New("table not found")
	ErrInvalidExportRequest = errors.New("invalid export request")
	ErrDatabase             = errors.New("database error")
)

// DatabaseError wraps a storage failure. The wrapped detail is for logs only.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap lets errors.Is match both ErrDatabase and the driver error.
func (e *DatabaseError) Unwrap() []error {
	return []error{ErrDatabase, e.Err}
}

// NewDatabaseError wraps err as a DatabaseError for the named operation
func NewDatabaseError(op string, err error) error {
	return &DatabaseError{Op: op, Err: err}
}

// TableNotFound returns an ErrTableNotFound for the given table
func TableNotFound(table string) error {
	return fmt.Errorf("%w: %s", ErrTableNotFound, table)
}

// InvalidExportRequest returns an ErrInvalidExportRequest with a reason
func InvalidExportRequest(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidExportRequest, reason)
}

package register

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingData marks an expected absence: a column, partition or person
	// that is not present. Attribute-level absence is reported as ok=false or
	// a nil value, never as this error; it is used where absence is fatal.
	ErrMissingData = errors.New("missing data")

	// ErrInvalidFormat is returned for a wrong concrete array type, a malformed
	// date or a malformed period key.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidOperation is returned when an operation is not supported for
	// the given input (unknown register, unknown covariate type).
	ErrInvalidOperation = errors.New("invalid operation")
)

// ColumnError describes a column that is absent or has an unexpected type.
//
// errors.Is(err, ErrMissingData) holds for absent columns and
// errors.Is(err, ErrInvalidFormat) for type mismatches.
type ColumnError struct {
	Column   string
	Expected string
	Actual   string // empty if the column is absent
	cause    error
}

func (e *ColumnError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("column %q not found", e.Column)
	}
	return fmt.Sprintf("column %q: expected %s, got %s", e.Column, e.Expected, e.Actual)
}

func (e *ColumnError) Unwrap() error { return e.cause }

func missingColumn(column, expected string) *ColumnError {
	return &ColumnError{Column: column, Expected: expected, cause: ErrMissingData}
}

func wrongColumnType(column, expected, actual string) *ColumnError {
	return &ColumnError{Column: column, Expected: expected, Actual: actual, cause: ErrInvalidFormat}
}

// PeriodKeyError indicates a period key that does not fit the register's
// partition granularity.
type PeriodKeyError struct {
	Register Name
	Key      string
	Reason   string
}

func (e *PeriodKeyError) Error() string {
	return fmt.Sprintf("register %s: invalid period key %q: %s", e.Register, e.Key, e.Reason)
}

func (e *PeriodKeyError) Unwrap() error { return ErrInvalidFormat }

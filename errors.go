package perch

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common failure kinds. The typed errors below
// bridge to these through errors.Is so callers can match on either form.
var (
	// ErrConstruction is returned when a query is assembled in a way that can
	// never render to valid SQL (bad operator, negative bounds, empty upsert
	// conflict set, mutation without a predicate).
	ErrConstruction = errors.New("perch: malformed query")

	// ErrUnsupported is returned at render time when a query asks for
	// something the field's type has no rendering rule for.
	ErrUnsupported = errors.New("perch: unsupported operation")

	// ErrTableMissing is returned when the backend reports that the target
	// table does not exist.
	ErrTableMissing = errors.New("perch: table does not exist")

	// ErrColumnMissing is returned when the backend reports that a referenced
	// column does not exist.
	ErrColumnMissing = errors.New("perch: column does not exist")

	// ErrUniqueViolation is returned when the backend reports a unique or
	// integrity constraint violation.
	ErrUniqueViolation = errors.New("perch: unique constraint violation")

	// ErrConnClosed is returned when the backend reports a closed or shut
	// down connection.
	ErrConnClosed = errors.New("perch: connection closed")

	// ErrPlaceholder is returned when the rendered argument list does not
	// line up with the statement's placeholders.
	ErrPlaceholder = errors.New("perch: placeholder mismatch")
)

// ConstructionError reports a query that was assembled incorrectly. It is
// raised synchronously at build or validation time, before any SQL exists.
type ConstructionError struct {
	Op  string // builder operation that failed, e.g. "sort", "upsert"
	Msg string
}

// Error returns the error string.
func (e *ConstructionError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("perch: %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("perch: %s", e.Msg)
}

// Is reports whether the target error matches ConstructionError.
func (e *ConstructionError) Is(err error) bool {
	return err == ErrConstruction
}

// NewConstructionError returns a new ConstructionError.
func NewConstructionError(op, format string, args ...any) *ConstructionError {
	return &ConstructionError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsConstruction returns true if the error is a ConstructionError.
func IsConstruction(err error) bool {
	if err == nil {
		return false
	}
	var e *ConstructionError
	return errors.As(err, &e) || errors.Is(err, ErrConstruction)
}

// UnsupportedError reports an operation that has no rendering rule, such as
// a date-part predicate against a non-temporal field.
type UnsupportedError struct {
	Field string
	Msg   string
}

// Error returns the error string.
func (e *UnsupportedError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("perch: field %q: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("perch: %s", e.Msg)
}

// Is reports whether the target error matches UnsupportedError.
func (e *UnsupportedError) Is(err error) bool {
	return err == ErrUnsupported
}

// NewUnsupportedError returns a new UnsupportedError for the given field.
func NewUnsupportedError(field, format string, args ...any) *UnsupportedError {
	return &UnsupportedError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// IsUnsupported returns true if the error is an UnsupportedError.
func IsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupported)
}

// TableMissingError is the classified form of a backend "relation/table does
// not exist" signal. The execution layer may react by creating the table and
// retrying once.
type TableMissingError struct {
	Table string
	wrap  error
}

// Error returns the error string.
func (e *TableMissingError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("perch: table %q does not exist: %v", e.Table, e.wrap)
	}
	return fmt.Sprintf("perch: table does not exist: %v", e.wrap)
}

// Unwrap returns the underlying driver error.
func (e *TableMissingError) Unwrap() error { return e.wrap }

// Is reports whether the target error matches TableMissingError.
func (e *TableMissingError) Is(err error) bool {
	return err == ErrTableMissing
}

// NewTableMissingError returns a new TableMissingError wrapping the driver error.
func NewTableMissingError(table string, wrap error) *TableMissingError {
	return &TableMissingError{Table: table, wrap: wrap}
}

// IsTableMissing returns true if the error is a TableMissingError.
func IsTableMissing(err error) bool {
	if err == nil {
		return false
	}
	var e *TableMissingError
	return errors.As(err, &e) || errors.Is(err, ErrTableMissing)
}

// ColumnMissingError is the classified form of a backend "no such column"
// signal. The execution layer may react by adding missing nullable columns
// and retrying once.
type ColumnMissingError struct {
	Table  string
	Column string
	wrap   error
}

// Error returns the error string.
func (e *ColumnMissingError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("perch: column %q does not exist: %v", e.Column, e.wrap)
	}
	return fmt.Sprintf("perch: column does not exist: %v", e.wrap)
}

// Unwrap returns the underlying driver error.
func (e *ColumnMissingError) Unwrap() error { return e.wrap }

// Is reports whether the target error matches ColumnMissingError.
func (e *ColumnMissingError) Is(err error) bool {
	return err == ErrColumnMissing
}

// NewColumnMissingError returns a new ColumnMissingError wrapping the driver error.
func NewColumnMissingError(table, column string, wrap error) *ColumnMissingError {
	return &ColumnMissingError{Table: table, Column: column, wrap: wrap}
}

// IsColumnMissing returns true if the error is a ColumnMissingError.
func IsColumnMissing(err error) bool {
	if err == nil {
		return false
	}
	var e *ColumnMissingError
	return errors.As(err, &e) || errors.Is(err, ErrColumnMissing)
}

// UniqueError is the classified form of a backend unique or integrity
// constraint violation. It is always propagated, never retried.
type UniqueError struct {
	Table string
	wrap  error
}

// Error returns the error string.
func (e *UniqueError) Error() string {
	return fmt.Sprintf("perch: unique constraint violation: %v", e.wrap)
}

// Unwrap returns the underlying driver error.
func (e *UniqueError) Unwrap() error { return e.wrap }

// Is reports whether the target error matches UniqueError.
func (e *UniqueError) Is(err error) bool {
	return err == ErrUniqueViolation
}

// NewUniqueError returns a new UniqueError wrapping the driver error.
func NewUniqueError(table string, wrap error) *UniqueError {
	return &UniqueError{Table: table, wrap: wrap}
}

// IsUnique returns true if the error is a UniqueError.
func IsUnique(err error) bool {
	if err == nil {
		return false
	}
	var e *UniqueError
	return errors.As(err, &e) || errors.Is(err, ErrUniqueViolation)
}

// CloseError is the classified form of a backend "connection closed" signal.
// It is the only kind the execution layer retries with backoff.
type CloseError struct {
	wrap error
}

// Error returns the error string.
func (e *CloseError) Error() string {
	return fmt.Sprintf("perch: connection closed: %v", e.wrap)
}

// Unwrap returns the underlying driver error.
func (e *CloseError) Unwrap() error { return e.wrap }

// Is reports whether the target error matches CloseError.
func (e *CloseError) Is(err error) bool {
	return err == ErrConnClosed
}

// NewCloseError returns a new CloseError wrapping the driver error.
func NewCloseError(wrap error) *CloseError {
	return &CloseError{wrap: wrap}
}

// IsClose returns true if the error is a CloseError.
func IsClose(err error) bool {
	if err == nil {
		return false
	}
	var e *CloseError
	return errors.As(err, &e) || errors.Is(err, ErrConnClosed)
}

// PlaceholderError reports an argument list whose length does not match the
// number of placeholder tokens in the statement.
type PlaceholderError struct {
	Want int // placeholders in the statement
	Got  int // arguments supplied
}

// Error returns the error string.
func (e *PlaceholderError) Error() string {
	return fmt.Sprintf("perch: statement has %d placeholders but %d arguments", e.Want, e.Got)
}

// Is reports whether the target error matches PlaceholderError.
func (e *PlaceholderError) Is(err error) bool {
	return err == ErrPlaceholder
}

// IsPlaceholder returns true if the error is a PlaceholderError.
func IsPlaceholder(err error) bool {
	if err == nil {
		return false
	}
	var e *PlaceholderError
	return errors.As(err, &e) || errors.Is(err, ErrPlaceholder)
}

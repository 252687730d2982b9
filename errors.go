package relmap

import (
	"errors"
	"fmt"

	"github.com/syssam/relmap/codec"
	"github.com/syssam/relmap/dialect/sql"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("relmap: entity not found")

	// ErrNotSingular is returned when a query that expects exactly one result
	// returns multiple results.
	ErrNotSingular = errors.New("relmap: entity not singular")

	// ErrInvalidArgument is matched by errors returned when a statement
	// cannot be compiled from the given arguments.
	ErrInvalidArgument = errors.New("relmap: invalid argument")

	// ErrExecFailed is matched by errors returned when the engine rejects a
	// statement.
	ErrExecFailed = errors.New("relmap: sql execution failed")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction.
	ErrTxStarted = errors.New("relmap: cannot start a transaction within a transaction")
)

type (
	// ConversionError is returned when a stored value cannot be converted
	// into the field type.
	ConversionError = codec.ConversionError

	// SchemaMismatchError is returned when a result column is not mapped.
	SchemaMismatchError = sql.SchemaMismatchError
)

// InvalidArgumentError is returned when a compiler rejects its input: an
// invalid identifier, an unknown column, an unsupported condition value or
// a mapping without the requested column.
type InvalidArgumentError struct {
	Entity string // Table of the operation
	Op     string // Operation (e.g. "insert", "select")
	Reason string // Optional detail
}

// Error returns the error string.
func (e *InvalidArgumentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("relmap: %s %s: invalid argument: %s", e.Op, e.Entity, e.Reason)
	}
	return fmt.Sprintf("relmap: %s %s: invalid argument", e.Op, e.Entity)
}

// Is reports whether the target error matches ErrInvalidArgument.
func (e *InvalidArgumentError) Is(err error) bool {
	return err == ErrInvalidArgument
}

// IsInvalidArgument returns true if the error is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	return err != nil && errors.Is(err, ErrInvalidArgument)
}

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the key that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("relmap: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("relmap: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the key that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents an error when a lookup by primary key
// matches more than one row.
type NotSingularError struct {
	label string
	count int
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	return fmt.Sprintf("relmap: %s not singular (got %d results, expected 1)", e.label, e.count)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Count returns the number of results.
func (e *NotSingularError) Count() int {
	return e.count
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	return err != nil && errors.Is(err, ErrNotSingular)
}

// QueryError wraps an engine error raised by a row-returning statement.
type QueryError struct {
	Entity string // Table being queried
	Op     string // Operation (e.g. "select", "count", "sum")
	SQL    string // Statement text
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	return fmt.Sprintf("relmap: querying %s (%s): %v", e.Entity, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrExecFailed.
func (e *QueryError) Is(err error) bool {
	return err == ErrExecFailed
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps an engine error raised by a statement that changes
// the schema or the stored rows.
type MutationError struct {
	Entity string // Table being mutated
	Op     string // Operation (e.g. "insert", "update", "delete")
	SQL    string // Statement text
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("relmap: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrExecFailed.
func (e *MutationError) Is(err error) bool {
	return err == ErrExecFailed
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("relmap: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("relmap: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// IsSchemaMismatch returns true if the error is a SchemaMismatchError.
func IsSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaMismatchError
	return errors.As(err, &e)
}

// IsConversionError returns true if the error is a ConversionError.
func IsConversionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConversionError
	return errors.As(err, &e)
}

// execError wraps an engine error. Constraint violations are wrapped in a
// ConstraintError as well.
func execError(entity, op, query string, err error, isQuery bool) error {
	if sql.IsConstraintError(err) {
		err = ConstraintError{msg: err.Error(), wrap: err}
	}
	if isQuery {
		return &QueryError{Entity: entity, Op: op, SQL: query, Err: err}
	}
	return &MutationError{Entity: entity, Op: op, SQL: query, Err: err}
}

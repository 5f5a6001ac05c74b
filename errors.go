package dbcon

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotConnected is returned when an operation needs the connection and
	// none could be established.
	ErrNotConnected = errors.New("dbcon: not connected")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction.
	ErrTxStarted = errors.New("dbcon: cannot start a transaction within a transaction")

	// ErrInvalidInput is returned by a terminal operation when a clause
	// method was given input that cannot be rendered safely.
	ErrInvalidInput = errors.New("dbcon: invalid input")
)

// ConnectionError is returned when the connection cannot be established.
type ConnectionError struct {
	Addr string // Masked data source
	Err  error  // Underlying error
}

// Error returns the error string.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("dbcon: connect to %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrNotConnected.
func (e *ConnectionError) Is(err error) bool {
	return err == ErrNotConnected
}

// IsConnectionError returns true if the error is a ConnectionError.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConnectionError
	return errors.As(err, &e)
}

// QueryError wraps a driver error with the statement that caused it.
type QueryError struct {
	Query string // Executed statement
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	return fmt.Sprintf("dbcon: executing %q: %v", e.Query, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// TxError wraps a failed transaction operation.
type TxError struct {
	Op  string // begin, commit or rollback
	Err error  // Underlying error
}

// Error returns the error string.
func (e *TxError) Error() string {
	return fmt.Sprintf("dbcon: %s transaction: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TxError) Unwrap() error {
	return e.Err
}

// IsTxError returns true if the error is a TxError.
func IsTxError(err error) bool {
	if err == nil {
		return false
	}
	var e *TxError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("dbcon: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// InputError describes rejected clause input.
type InputError struct {
	Method string // Clause method that rejected the input
	Input  string // Offending input
	Reason string
}

// Error returns the error string.
func (e *InputError) Error() string {
	return fmt.Sprintf("dbcon: %s: invalid input %q: %s", e.Method, e.Input, e.Reason)
}

// Is reports whether the target error matches ErrInvalidInput.
func (e *InputError) Is(err error) bool {
	return err == ErrInvalidInput
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "dbcon: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("dbcon: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

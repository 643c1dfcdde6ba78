package store

import (
	"errors"
	"fmt"
)

// Kind categorizes storage failures.
type Kind string

const (
	// KindConnection means the database could not be reached or opened,
	// including schema migration failures during first use.
	KindConnection Kind = "CONNECTION"

	// KindQuery means a statement failed during execution.
	KindQuery Kind = "QUERY"

	// KindTransaction means begin or commit failed after statements ran.
	KindTransaction Kind = "TRANSACTION"
)

// ErrCleanupUnsupported is returned by Store.Cleanup: the sweep policy is
// a declared extension point with no implementation.
var ErrCleanupUnsupported = errors.New("fingerprint cleanup is not implemented")

// StorageError is the unified failure type surfaced by Save, Load and
// Delete. The original cause is preserved for diagnostics. Callers must
// assume the operation had no effect (transactions guarantee this for
// Save and Delete) or returned no data (for Load).
type StorageError struct {
	// Kind identifies the failure category.
	Kind Kind

	// Op names the operation that failed.
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

func newConnectionError(op string, err error) *StorageError {
	return &StorageError{Kind: KindConnection, Op: op, Err: err}
}

func newQueryError(op string, err error) *StorageError {
	return &StorageError{Kind: KindQuery, Op: op, Err: err}
}

func newTransactionError(op string, err error) *StorageError {
	return &StorageError{Kind: KindTransaction, Op: op, Err: err}
}

// IsConnectionError reports whether err is a connection-kind StorageError.
// Uses errors.As to handle wrapped errors.
func IsConnectionError(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == KindConnection
}

// IsQueryError reports whether err is a query-kind StorageError.
func IsQueryError(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == KindQuery
}

// IsTransactionError reports whether err is a transaction-kind StorageError.
func IsTransactionError(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == KindTransaction
}

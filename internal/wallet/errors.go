package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount occurs when an operation is given a non-positive
	// amount, or an unlock bonus that would drive available negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds occurs when a debit or lock exceeds the available
	// balance, or an unlock exceeds the locked balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotFound indicates the referenced wallet does not exist.
	ErrNotFound = errors.New("wallet not found")
)

// StorageError wraps a persistence-layer failure so callers can distinguish
// it from validation errors and retry at idempotency-key granularity.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

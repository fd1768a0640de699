package purchase

import (
	"context"
	"errors"
	"fmt"
)

// Kind names a failure category. It doubles as the metrics outcome label.
type Kind string

const (
	KindNone              Kind = "success"
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindStore             Kind = "store_error"
)

// ValidationError is returned when the request is rejected before any
// transaction is opened.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid purchase request: %s %s", e.Field, e.Reason)
}

// Is allows proper error type checking with errors.Is()
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NotFoundError is returned when a cart line references an unknown item.
type NotFoundError struct {
	ItemID string
}

// Error implements the error interface for NotFoundError
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item not found: id=%s", e.ItemID)
}

// Is allows proper error type checking with errors.Is()
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// InsufficientStockError is returned when a line asks for more units than
// the item has.
type InsufficientStockError struct {
	ItemID    string
	Name      string
	Available int
	Requested int
}

// Error implements the error interface for InsufficientStockError
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (id=%s): available %d, requested %d",
		e.Name, e.ItemID, e.Available, e.Requested)
}

// Is allows proper error type checking with errors.Is()
func (e *InsufficientStockError) Is(target error) bool {
	_, ok := target.(*InsufficientStockError)
	return ok
}

// StoreError wraps a failure of the underlying transactional store.
// Retryable is set when the transaction was aborted because it ran out of
// time, so the same request may succeed later.
type StoreError struct {
	Op        string
	Retryable bool
	Err       error
}

// Error implements the error interface for StoreError
func (e *StoreError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("store %s failed (retryable): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

// Is allows proper error type checking with errors.Is()
func (e *StoreError) Is(target error) bool {
	_, ok := target.(*StoreError)
	return ok
}

func (e *StoreError) Unwrap() error { return e.Err }

// Helper functions for creating errors with context

// NewValidationError creates a new ValidationError
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(itemID string) error {
	return &NotFoundError{ItemID: itemID}
}

// NewInsufficientStockError creates a new InsufficientStockError
func NewInsufficientStockError(itemID, name string, available, requested int) error {
	return &InsufficientStockError{ItemID: itemID, Name: name, Available: available, Requested: requested}
}

// NewStoreError wraps err, marking context deadline expiry as retryable.
func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err, Retryable: errors.Is(err, context.DeadlineExceeded)}
}

// Type assertion helpers for use with errors.As()

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFoundError checks if an error is a NotFoundError
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInsufficientStockError checks if an error is an InsufficientStockError
func IsInsufficientStockError(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}

// IsStoreError checks if an error is a StoreError
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsRetryable reports whether err is a StoreError worth retrying.
func IsRetryable(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Retryable
}

// KindOf classifies err. Unknown errors count as store failures.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case IsValidationError(err):
		return KindValidation
	case IsNotFoundError(err):
		return KindNotFound
	case IsInsufficientStockError(err):
		return KindInsufficientStock
	default:
		return KindStore
	}
}

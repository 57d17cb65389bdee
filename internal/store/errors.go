package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates a permitted
	// status transition.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrStaleClaim is returned when a token-gated write matches no row:
	// the lock token no longer identifies the current owner, meaning the
	// record was completed or reclaimed by someone else. Callers drop this
	// silently rather than surfacing it as a failure.
	ErrStaleClaim = errors.New("stale claim: lock token no longer owns the request")

	// Entity-specific "not found" errors

	// ErrRequestNotFound indicates that the requested summary request does not exist.
	ErrRequestNotFound = fmt.Errorf("%w: summary request", ErrNotFound)

	// ErrTranscriptNotFound indicates that the requested transcript does not exist.
	ErrTranscriptNotFound = fmt.Errorf("%w: transcript", ErrNotFound)

	// ErrAssetNotFound indicates that the requested audio asset does not exist.
	ErrAssetNotFound = fmt.Errorf("%w: audio asset", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// This includes the generic ErrNotFound and all entity-specific not found errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStaleClaim checks if the error reports a lost claim at a token-gated
// write.
func IsStaleClaim(err error) bool {
	return errors.Is(err, ErrStaleClaim)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "summary_request")
	Operation string // The operation that failed (e.g., "claim", "mark_sent")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

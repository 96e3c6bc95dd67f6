package service

import "fmt"

// ValidationError reports malformed or out-of-range input. Not retryable.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidStateError reports an operation that is not legal in the entity's
// current lifecycle state. The caller must re-fetch state before retrying.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

func invalidStateErrorf(format string, args ...interface{}) *InvalidStateError {
	return &InvalidStateError{Msg: fmt.Sprintf(format, args...)}
}

// AuthorizationError reports an actor lacking the privilege for an operation
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// InsufficientInventoryError reports that automatic sourcing could not cover
// the requested increase. The caller may retry with a smaller quantity or
// after replenishment.
type InsufficientInventoryError struct {
	SupplyCode string
	Requested  int
	Available  int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for supply %s: requested %d, available %d",
		e.SupplyCode, e.Requested, e.Available)
}

// NotFoundError reports a referenced entity that does not exist
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConcurrencyConflictError reports a failed optimistic check caused by a
// concurrent mutation. Safe to retry with fresh state.
type ConcurrencyConflictError struct {
	Msg string
}

func (e *ConcurrencyConflictError) Error() string { return e.Msg }

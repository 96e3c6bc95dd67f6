package repository

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrOptimisticLock is returned when a guarded update matched no rows
	// because a concurrent writer changed the version first
	ErrOptimisticLock = errors.New("optimistic lock conflict")

	// ErrInsufficientStock is returned when a guarded batch decrement would
	// have driven the quantity negative
	ErrInsufficientStock = errors.New("insufficient batch stock")

	// ErrCapacityExceeded is returned when a receipt would push a hospital's
	// current capacity past its storage volume
	ErrCapacityExceeded = errors.New("storage volume exceeded")
)

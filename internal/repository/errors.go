package repository

import "errors"

var (
	// ErrConcurrentModification is returned when an optimistic-concurrency
	// guarded update matches zero rows because the version moved underneath.
	ErrConcurrentModification = errors.New("registration was modified concurrently")

	// ErrCapacityGuardFailed is returned when a guarded counter update
	// matches zero rows because the capacity invariant would be violated.
	ErrCapacityGuardFailed = errors.New("capacity guard rejected the update")
)

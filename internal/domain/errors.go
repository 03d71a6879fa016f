package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the rollcall domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrRosterUnavailable is returned when the roster lookup itself failed.
	// It is distinct from a lookup that succeeded with zero eligible members;
	// a cycle must never proceed on a partial or failed roster.
	ErrRosterUnavailable = errors.New("rollcall: roster unavailable")

	// ErrUnknownDelivery is returned for an interaction event that matches no
	// delivery record in the active cycle (stale, replayed, or expired-cycle
	// events). No record is ever created implicitly.
	ErrUnknownDelivery = errors.New("rollcall: no delivery record for interaction")

	// ErrAlreadyFinalized is returned for an event against a record already
	// in a terminal state. It is never surfaced to the transport as a failure.
	ErrAlreadyFinalized = errors.New("rollcall: delivery record already finalized")

	// ErrDuplicateDelivery is returned when a second record is created for
	// the same (cycle, recipient) pair.
	ErrDuplicateDelivery = errors.New("rollcall: delivery record already exists")

	// ErrCycleInProgress is returned when a cycle trigger arrives while a
	// cycle is already running. Triggers are rejected, never queued.
	ErrCycleInProgress = errors.New("rollcall: check-in cycle already running")

	// ErrInvalidTransition is returned for a delivery state transition the
	// transition table forbids.
	ErrInvalidTransition = errors.New("rollcall: invalid delivery state transition")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("rollcall: invalid configuration")
)

// DispatchError records one recipient's send failure. Failures are isolated:
// they are collected into the cycle report and never abort the batch.
type DispatchError struct {
	RecipientID string
	Cause       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s: %v", e.RecipientID, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *DispatchError) Unwrap() error {
	return e.Cause
}

package session

import "errors"

// Sentinel errors for session operations.
var (
	// ErrNothingToSubmit indicates the selection or instruction is empty.
	ErrNothingToSubmit = errors.New("nothing to submit")

	// ErrBusy indicates a submission is already in flight.
	ErrBusy = errors.New("submission in progress")
)

package session

import "errors"

var (
	// ErrNoRoot is returned when a workspace is created without a root directory.
	ErrNoRoot = errors.New("workspace root not configured")

	// ErrNotFound is returned when a session record does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidTransition is returned for a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)

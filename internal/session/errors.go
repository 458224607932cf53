package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionClosed signals an operation against a session whose
	// lifecycle state forbids it. The recovery path is a new session, not a
	// retry.
	ErrSessionClosed = errors.New("session no longer accepts this operation")

	// ErrSessionNotFound signals a session id that no longer exists, e.g.
	// after the dashboard's archive clear.
	ErrSessionNotFound = errors.New("session not found")

	// ErrBillOutOfOrder signals a bill step attempted before its
	// predecessor: accepting a bill never requested, downloading a bill
	// never accepted.
	ErrBillOutOfOrder = errors.New("bill step out of order")
)

// ValidationError rejects malformed input before any store round-trip.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SyncError wraps a failed store round-trip. There is no automatic retry;
// callers surface it and leave recovery to the user.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("store sync failed during %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

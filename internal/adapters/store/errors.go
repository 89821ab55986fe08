package store

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrUnavailable wraps every transport or communication failure.
	ErrUnavailable = errors.New("score store unavailable")
	// ErrInvalidScore is returned for NaN scores and increments.
	ErrInvalidScore = errors.New("invalid score")
)

package engagement

import (
	"errors"

	"Quad/internal/core/comments"
)

var (
	// ErrInvalidSubject indicates a subject with an unknown type or empty id
	ErrInvalidSubject = errors.New("invalid like subject")

	// ErrInvalidDelta indicates a counter delta other than -1, 0 or +1
	ErrInvalidDelta = errors.New("like delta must be -1, 0 or +1")

	// ErrStaleReference indicates the subject is no longer present locally.
	// Under eventual consistency this is a no-op, not a failure.
	ErrStaleReference = errors.New("subject is no longer present")

	// ErrStoreClosed indicates the view owning the store was dismissed
	ErrStoreClosed = errors.New("engagement store has been discarded")

	// ErrTransientWrite wraps a backend failure on a like insert/delete.
	// The local state has already been rolled back when this is returned.
	ErrTransientWrite = errors.New("like write failed")

	// ErrToggleInFlight is returned under PolicyReject when a toggle for the
	// same subject has not resolved yet
	ErrToggleInFlight = errors.New("like toggle already in flight for this subject")

	// ErrNotAuthenticated indicates an operation that needs a viewer id was called without one
	ErrNotAuthenticated = errors.New("viewer identity required")
)

// IsTransient checks if an error is a recoverable write failure
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientWrite) ||
		errors.Is(err, comments.ErrWriteFailed)
}

// IsStale checks if an error only reports that the target is gone
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleReference) ||
		errors.Is(err, ErrStoreClosed) ||
		comments.IsNotFound(err)
}

// Outcome is what the presentation layer needs to know about a finished action
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeTransient Outcome = "transient" // show a transient error, state already restored
	OutcomeIgnored   Outcome = "ignored"   // target vanished, nothing to show
	OutcomeRejected  Outcome = "rejected"  // invalid or unauthorized request
)

// Classify maps an error returned by this package to an Outcome
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case IsTransient(err):
		return OutcomeTransient
	case IsStale(err), errors.Is(err, ErrToggleInFlight):
		return OutcomeIgnored
	default:
		return OutcomeRejected
	}
}

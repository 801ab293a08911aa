package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyIdentities is returned when a batch exceeds MaxBatchSize
	ErrTooManyIdentities = errors.New("identity batch too large")

	// ErrInvalidUser is returned when a user is stored without an id or display name
	ErrInvalidUser = errors.New("user id and display name are required")

	errNoFetcher = errors.New("no identity fetcher configured")
)

// LookupError is returned when a batch of identities could not be fetched
type LookupError struct {
	Err     error
	UserIDs []string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("identity lookup failed for %d users: %v", len(e.UserIDs), e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// IsLookupFailure reports whether err came from a failed identity lookup
func IsLookupFailure(err error) bool {
	var lookupErr *LookupError
	return errors.As(err, &lookupErr)
}

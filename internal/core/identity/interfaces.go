package identity

import "context"

// Fetcher performs the batched identity lookup against the backend
type Fetcher interface {
	// FetchIdentities returns display identities keyed by user id.
	// Unknown ids are omitted from the result; that is not an error.
	FetchIdentities(ctx context.Context, userIDs []string) (map[string]Snapshot, error)
}

// Repository stores user identities
type Repository interface {
	Fetcher
	// UpsertUser creates the user or updates their display identity
	UpsertUser(ctx context.Context, s Snapshot) error
}

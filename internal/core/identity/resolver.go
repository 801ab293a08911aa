package identity

import (
	"context"
	"log/slog"
)

// MaxBatchSize bounds a single FetchIdentities call
const MaxBatchSize = 1000

// Resolver resolves display identities through the session cache,
// batching every miss into a single backend lookup
type Resolver struct {
	cache   *Cache
	fetcher Fetcher
	logger  *slog.Logger
}

// NewResolver creates a resolver over an injected session cache
func NewResolver(cache *Cache, fetcher Fetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{
		cache:   cache,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Cache returns the session cache backing this resolver
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns a snapshot for every requested user id.
// Cached ids are reused; the remainder is fetched once and added to the cache.
// Ids that could not be resolved get a degraded Fallback snapshot instead of an error.
func (r *Resolver) Resolve(ctx context.Context, userIDs []string) map[string]Snapshot {
	unique := dedupe(userIDs)
	result, missing := r.cache.Partition(unique)
	if len(missing) == 0 {
		return result
	}

	fetched, err := r.fetch(ctx, missing)
	if err != nil {
		r.logger.Warn("identity lookup failed, using raw user ids",
			"error", err,
			"missing", len(missing))
	}

	for _, id := range missing {
		s, ok := fetched[id]
		if !ok {
			result[id] = Fallback(id)
			continue
		}
		s.UserID = id
		r.cache.Put(s)
		result[id] = s
	}

	return result
}

func (r *Resolver) fetch(ctx context.Context, userIDs []string) (map[string]Snapshot, error) {
	if r.fetcher == nil {
		return nil, &LookupError{UserIDs: userIDs, Err: errNoFetcher}
	}

	fetched := make(map[string]Snapshot, len(userIDs))
	for start := 0; start < len(userIDs); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}

		batch, err := r.fetcher.FetchIdentities(ctx, userIDs[start:end])
		if err != nil {
			return fetched, &LookupError{UserIDs: userIDs[start:end], Err: err}
		}
		for id, s := range batch {
			fetched[id] = s
		}
	}
	return fetched, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

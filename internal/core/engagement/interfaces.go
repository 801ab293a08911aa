package engagement

import "context"

// LikeWriter issues writes against the likes relation.
// At most one like exists per (subject, user) pair.
type LikeWriter interface {
	// InsertLike inserts the pair if absent and ignores it if present
	InsertLike(ctx context.Context, subject Subject, userID string) error

	// DeleteLike removes the pair; a missing pair is not an error
	DeleteLike(ctx context.Context, subject Subject, userID string) error
}

// LikeQuerier reads the likes relation, the single source of truth for
// every count and "liked by me" flag
type LikeQuerier interface {
	CountLikes(ctx context.Context, subject Subject) (int, error)
	LikeExists(ctx context.Context, subject Subject, userID string) (bool, error)
}

// LikeRepository is the full like collaborator
type LikeRepository interface {
	LikeWriter
	LikeQuerier
}

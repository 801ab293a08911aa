package feed

import "context"

// Subscription is a live change-stream registration. Unsubscribe must be
// called when the consuming view goes away; it is safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// ChangeSource delivers insert/update/delete events for the posts collection.
// Delivery order across different posts is not guaranteed.
type ChangeSource interface {
	SubscribePostChanges(ctx context.Context, onEvent func(ChangeEvent)) (Subscription, error)
}

// Loader fetches a page of the feed, newest first
type Loader interface {
	ListFeed(ctx context.Context, limit int) ([]Post, error)
}

// Repository is the backing store for posts
type Repository interface {
	Loader
	GetPost(ctx context.Context, postID string) (*Post, error)
	CreatePost(ctx context.Context, authorID, body string, tags Tags) (*Post, error)
	// DeletePost removes a post owned by authorID
	DeletePost(ctx context.Context, postID, authorID string) error
}

package comments

import "context"

// Repository defines the backend operations for comments and replies.
// Deletes are scoped to the author: a user may only delete their own rows,
// and deleting a row removes its likes server-side.
type Repository interface {
	// ListComments returns every comment on a post, oldest first
	ListComments(ctx context.Context, postID string) ([]Comment, error)

	// ListReplies returns the replies to any of the given comments in one batch
	ListReplies(ctx context.Context, commentIDs []string) ([]Reply, error)

	InsertComment(ctx context.Context, postID, userID, body string) (*Comment, error)
	InsertReply(ctx context.Context, commentID, userID, body string) (*Reply, error)

	// DeleteComment returns ErrCommentNotFound when no row matches (id, author)
	DeleteComment(ctx context.Context, commentID, userID string) error

	// DeleteReply returns ErrReplyNotFound when no row matches (id, author)
	DeleteReply(ctx context.Context, replyID, userID string) error
}

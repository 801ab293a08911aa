package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"Quad/internal/core/comments"
)

type postgresCommentRepo struct {
	db *sql.DB
}

// NewCommentRepository creates a new PostgreSQL comment and reply repository
func NewCommentRepository(db *sql.DB) comments.Repository {
	return &postgresCommentRepo{db: db}
}

// ListComments returns every top-level comment on a post, oldest first
func (r *postgresCommentRepo) ListComments(ctx context.Context, postID string) ([]comments.Comment, error) {
	query := `
		SELECT id, post_id, author_id, body, like_count, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]comments.Comment, 0)
	for rows.Next() {
		var c comments.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.LikeCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return result, nil
}

// ListReplies returns the replies of every given comment in one query, oldest first
func (r *postgresCommentRepo) ListReplies(ctx context.Context, commentIDs []string) ([]comments.Reply, error) {
	if len(commentIDs) == 0 {
		return []comments.Reply{}, nil
	}

	query := `
		SELECT id, parent_comment_id, author_id, body, like_count, created_at
		FROM replies
		WHERE parent_comment_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(commentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]comments.Reply, 0)
	for rows.Next() {
		var rep comments.Reply
		if err := rows.Scan(&rep.ID, &rep.ParentCommentID, &rep.AuthorID, &rep.Body, &rep.LikeCount, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		result = append(result, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating replies: %w", err)
	}
	return result, nil
}

// InsertComment stores a new comment with a server-assigned id and timestamp
func (r *postgresCommentRepo) InsertComment(ctx context.Context, postID, userID, body string) (*comments.Comment, error) {
	c := &comments.Comment{
		ID:       uuid.NewString(),
		PostID:   postID,
		AuthorID: userID,
		Body:     body,
	}

	query := `
		INSERT INTO comments (id, post_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, c.ID, postID, userID, body).Scan(&c.CreatedAt)
	if err != nil {
		switch {
		case isForeignKeyViolation(err) && violatedConstraint(err) == "comments_post_id_fkey":
			return nil, comments.ErrPostNotFound
		case isCheckViolation(err):
			return nil, comments.ErrContentEmpty
		}
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}
	return c, nil
}

// InsertReply stores a reply under a top-level comment
func (r *postgresCommentRepo) InsertReply(ctx context.Context, commentID, userID, body string) (*comments.Reply, error) {
	rep := &comments.Reply{
		ID:              uuid.NewString(),
		ParentCommentID: commentID,
		AuthorID:        userID,
		Body:            body,
	}

	query := `
		INSERT INTO replies (id, parent_comment_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, rep.ID, commentID, userID, body).Scan(&rep.CreatedAt)
	if err != nil {
		switch {
		case isForeignKeyViolation(err) && violatedConstraint(err) == "replies_parent_comment_id_fkey":
			return nil, comments.ErrCommentNotFound
		case isCheckViolation(err):
			return nil, comments.ErrContentEmpty
		}
		return nil, fmt.Errorf("failed to insert reply: %w", err)
	}
	return rep, nil
}

// DeleteComment removes a comment owned by userID along with its replies
// Returns ErrCommentNotFound if no such comment belongs to the user.
func (r *postgresCommentRepo) DeleteComment(ctx context.Context, commentID, userID string) error {
	query := `DELETE FROM comments WHERE id = $1 AND author_id = $2`

	result, err := r.db.ExecContext(ctx, query, commentID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return comments.ErrCommentNotFound
	}
	return nil
}

// DeleteReply removes a reply owned by userID
func (r *postgresCommentRepo) DeleteReply(ctx context.Context, replyID, userID string) error {
	query := `DELETE FROM replies WHERE id = $1 AND author_id = $2`

	result, err := r.db.ExecContext(ctx, query, replyID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete reply: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return comments.ErrReplyNotFound
	}
	return nil
}

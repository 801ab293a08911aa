package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"Quad/internal/core/feed"
)

// MaxFeedPage caps a single feed page
const MaxFeedPage = 200

type postgresPostRepo struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) feed.Repository {
	return &postgresPostRepo{db: db}
}

const postColumns = `id, author_id, body, tags, like_count, comment_count, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*feed.Post, error) {
	var p feed.Post
	var tags pq.StringArray
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Body, &tags, &p.LikeCount, &p.CommentCount, &p.CreatedAt); err != nil {
		return nil, err
	}
	normalized, err := feed.NormalizeTags([]string(tags))
	if err != nil {
		return nil, err
	}
	p.Tags = normalized
	return &p, nil
}

// ListFeed returns the newest posts first
func (r *postgresPostRepo) ListFeed(ctx context.Context, limit int) ([]feed.Post, error) {
	if limit <= 0 {
		limit = feed.DefaultPageSize
	}
	if limit > MaxFeedPage {
		limit = MaxFeedPage
	}

	query := `SELECT ` + postColumns + `
		FROM posts
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]feed.Post, 0, limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return result, nil
}

// GetPost retrieves a post by id
func (r *postgresPostRepo) GetPost(ctx context.Context, postID string) (*feed.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	p, err := scanPost(r.db.QueryRowContext(ctx, query, postID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, feed.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

// CreatePost stores a new post; the NOTIFY trigger publishes the insert
func (r *postgresPostRepo) CreatePost(ctx context.Context, authorID, body string, tags feed.Tags) (*feed.Post, error) {
	if tags == nil {
		tags = feed.Tags{}
	}

	query := `
		INSERT INTO posts (id, author_id, body, tags, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING ` + postColumns

	p, err := scanPost(r.db.QueryRowContext(ctx, query, uuid.NewString(), authorID, body, pq.Array([]string(tags))))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("unknown author %s: %w", authorID, err)
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return p, nil
}

// DeletePost removes a post owned by authorID
// Comments, replies and likes go with it through cascades and triggers.
func (r *postgresPostRepo) DeletePost(ctx context.Context, postID, authorID string) error {
	query := `DELETE FROM posts WHERE id = $1 AND author_id = $2`

	result, err := r.db.ExecContext(ctx, query, postID, authorID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return feed.ErrPostNotFound
	}
	return nil
}

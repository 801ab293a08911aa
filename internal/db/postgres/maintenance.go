package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// RecountResult reports how many rows a recount corrected
type RecountResult struct {
	OrphanLikes  int64
	PostLikes    int64
	CommentLikes int64
	ReplyLikes   int64
	PostComments int64
}

// Total is the number of rows changed
func (r RecountResult) Total() int64 {
	return r.OrphanLikes + r.PostLikes + r.CommentLikes + r.ReplyLikes + r.PostComments
}

// RecountDerived rebuilds every derived counter from the relations it is
// derived from, and removes likes whose subject no longer exists. Triggers
// keep the counters in step during normal operation; this repairs drift
// after manual edits or restores.
func RecountDerived(ctx context.Context, db *sql.DB) (*RecountResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin recount: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var result RecountResult
	steps := []struct {
		dest  *int64
		name  string
		query string
	}{
		{dest: &result.OrphanLikes, name: "orphan likes", query: `
			DELETE FROM likes l
			WHERE (l.subject_type = 'post' AND NOT EXISTS (SELECT 1 FROM posts p WHERE p.id = l.subject_id))
			   OR (l.subject_type = 'comment' AND NOT EXISTS (SELECT 1 FROM comments c WHERE c.id = l.subject_id))
			   OR (l.subject_type = 'reply' AND NOT EXISTS (SELECT 1 FROM replies r WHERE r.id = l.subject_id))`},
		{dest: &result.PostLikes, name: "post likes", query: recountLikesQuery("posts", "post")},
		{dest: &result.CommentLikes, name: "comment likes", query: recountLikesQuery("comments", "comment")},
		{dest: &result.ReplyLikes, name: "reply likes", query: recountLikesQuery("replies", "reply")},
		{dest: &result.PostComments, name: "post comments", query: `
			UPDATE posts p
			SET comment_count = counted.n
			FROM (
				SELECT p2.id, COUNT(c.id) AS n
				FROM posts p2
				LEFT JOIN comments c ON c.post_id = p2.id
				GROUP BY p2.id
			) counted
			WHERE counted.id = p.id AND p.comment_count <> counted.n`},
	}

	for _, step := range steps {
		res, err := tx.ExecContext(ctx, step.query)
		if err != nil {
			return nil, fmt.Errorf("failed to recount %s: %w", step.name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to check %s recount: %w", step.name, err)
		}
		*step.dest = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit recount: %w", err)
	}
	return &result, nil
}

// recountLikesQuery sets table.like_count to the live count of likes on each row
func recountLikesQuery(table, subjectType string) string {
	return `
		UPDATE ` + table + ` t
		SET like_count = counted.n
		FROM (
			SELECT s.id, COUNT(l.user_id) AS n
			FROM ` + table + ` s
			LEFT JOIN likes l ON l.subject_type = '` + subjectType + `' AND l.subject_id = s.id
			GROUP BY s.id
		) counted
		WHERE counted.id = t.id AND t.like_count <> counted.n`
}

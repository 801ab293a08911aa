package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"Quad/internal/core/engagement"
)

type postgresLikeRepo struct {
	db *sql.DB
}

// NewLikeRepository creates a new PostgreSQL like repository
func NewLikeRepository(db *sql.DB) engagement.LikeRepository {
	return &postgresLikeRepo{db: db}
}

// subjectTable maps a subject type to the table holding its rows
func subjectTable(t engagement.SubjectType) (string, error) {
	switch t {
	case engagement.SubjectPost:
		return "posts", nil
	case engagement.SubjectComment:
		return "comments", nil
	case engagement.SubjectReply:
		return "replies", nil
	}
	return "", fmt.Errorf("%w: unknown subject type %q", engagement.ErrInvalidSubject, t)
}

// InsertLike records a like for (subject, user)
// Idempotent: an existing pair is left alone and no error is returned.
// Returns ErrStaleReference if the subject no longer exists.
func (r *postgresLikeRepo) InsertLike(ctx context.Context, subject engagement.Subject, userID string) error {
	if err := subject.Validate(); err != nil {
		return err
	}
	table, err := subjectTable(subject.Type)
	if err != nil {
		return err
	}

	// The subject check and the insert run as one statement so a concurrent
	// delete of the subject cannot leave an orphaned like behind
	query := fmt.Sprintf(`
		INSERT INTO likes (subject_type, subject_id, user_id, created_at)
		SELECT $1, $2, $3, NOW()
		WHERE EXISTS (SELECT 1 FROM %s WHERE id = $2)
		ON CONFLICT ON CONSTRAINT unique_like_subject_user DO NOTHING
	`, table)

	result, err := r.db.ExecContext(ctx, query, string(subject.Type), subject.ID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("unknown user %s: %w", userID, err)
		}
		return fmt.Errorf("failed to insert like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert result: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// Nothing inserted: either a duplicate (fine) or the subject is gone
	var exists bool
	existsQuery := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := r.db.QueryRowContext(ctx, existsQuery, subject.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check subject: %w", err)
	}
	if !exists {
		return engagement.ErrStaleReference
	}
	return nil
}

// DeleteLike removes the (subject, user) pair. A missing pair is a no-op.
func (r *postgresLikeRepo) DeleteLike(ctx context.Context, subject engagement.Subject, userID string) error {
	if err := subject.Validate(); err != nil {
		return err
	}

	query := `
		DELETE FROM likes
		WHERE subject_type = $1 AND subject_id = $2 AND user_id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, string(subject.Type), subject.ID, userID); err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

// CountLikes counts like rows for a subject
// This is the only correct count; the denormalized like_count columns are not read here.
func (r *postgresLikeRepo) CountLikes(ctx context.Context, subject engagement.Subject) (int, error) {
	if err := subject.Validate(); err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM likes WHERE subject_type = $1 AND subject_id = $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, string(subject.Type), subject.ID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// LikeExists reports whether the user has liked the subject
func (r *postgresLikeRepo) LikeExists(ctx context.Context, subject engagement.Subject, userID string) (bool, error) {
	if err := subject.Validate(); err != nil {
		return false, err
	}

	query := `
		SELECT EXISTS(
			SELECT 1 FROM likes
			WHERE subject_type = $1 AND subject_id = $2 AND user_id = $3
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, string(subject.Type), subject.ID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return exists, nil
}

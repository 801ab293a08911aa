package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"Quad/internal/core/identity"
)

type postgresUserRepo struct {
	db *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) identity.Repository {
	return &postgresUserRepo{db: db}
}

// FetchIdentities batch-loads display identities for the given user ids
// Unknown ids are simply absent from the result map.
func (r *postgresUserRepo) FetchIdentities(ctx context.Context, userIDs []string) (map[string]identity.Snapshot, error) {
	result := make(map[string]identity.Snapshot, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	if len(userIDs) > identity.MaxBatchSize {
		return nil, identity.ErrTooManyIdentities
	}

	query := `
		SELECT id, display_name, avatar_url
		FROM users
		WHERE id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch identities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var s identity.Snapshot
		var avatarURL sql.NullString
		if err := rows.Scan(&s.UserID, &s.DisplayName, &avatarURL); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		if avatarURL.Valid {
			s.AvatarURL = avatarURL.String
		}
		result[s.UserID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identities: %w", err)
	}
	return result, nil
}

// UpsertUser creates a user or refreshes their display name and avatar
func (r *postgresUserRepo) UpsertUser(ctx context.Context, s identity.Snapshot) error {
	if s.UserID == "" || s.DisplayName == "" {
		return identity.ErrInvalidUser
	}

	query := `
		INSERT INTO users (id, display_name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, s.UserID, s.DisplayName, s.AvatarURL); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

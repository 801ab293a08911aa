package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Quad/internal/core/comments"
)

func TestCommentRepo_InsertAndList(t *testing.T) {
	db := setupTestDB(t)
	defer cleanup(t, db, "cmttest-")

	createTestUser(t, db, "cmttest-ana")
	createTestUser(t, db, "cmttest-bob")
	createTestPost(t, db, "cmttest-p1", "cmttest-ana", time.Now())

	repo := NewCommentRepository(db)
	ctx := context.Background()

	first, err := repo.InsertComment(ctx, "cmttest-p1", "cmttest-ana", "first")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := repo.InsertComment(ctx, "cmttest-p1", "cmttest-bob", "second")
	require.NoError(t, err)

	reply, err := repo.InsertReply(ctx, first.ID, "cmttest-bob", "answer")
	require.NoError(t, err)

	list, err := repo.ListComments(ctx, "cmttest-p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	replies, err := repo.ListReplies(ctx, []string{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, reply.ID, replies[0].ID)
	assert.Equal(t, first.ID, replies[0].ParentCommentID)

	empty, err := repo.ListReplies(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	var commentCount int
	require.NoError(t, db.QueryRow(`SELECT comment_count FROM posts WHERE id = $1`, "cmttest-p1").Scan(&commentCount))
	assert.Equal(t, 2, commentCount)
}

func TestCommentRepo_InsertErrors(t *testing.T) {
	db := setupTestDB(t)
	defer cleanup(t, db, "cmttest2-")

	createTestUser(t, db, "cmttest2-ana")
	createTestPost(t, db, "cmttest2-p1", "cmttest2-ana", time.Now())

	repo := NewCommentRepository(db)
	ctx := context.Background()

	_, err := repo.InsertComment(ctx, "cmttest2-missing", "cmttest2-ana", "hello")
	assert.ErrorIs(t, err, comments.ErrPostNotFound)

	_, err = repo.InsertReply(ctx, "cmttest2-missing", "cmttest2-ana", "hello")
	assert.ErrorIs(t, err, comments.ErrCommentNotFound)

	_, err = repo.InsertComment(ctx, "cmttest2-p1", "cmttest2-ana", "   ")
	assert.ErrorIs(t, err, comments.ErrContentEmpty)
}

func TestCommentRepo_DeleteIsAuthorScoped(t *testing.T) {
	db := setupTestDB(t)
	defer cleanup(t, db, "cmttest3-")

	createTestUser(t, db, "cmttest3-ana")
	createTestUser(t, db, "cmttest3-bob")
	createTestPost(t, db, "cmttest3-p1", "cmttest3-ana", time.Now())

	repo := NewCommentRepository(db)
	ctx := context.Background()

	c, err := repo.InsertComment(ctx, "cmttest3-p1", "cmttest3-ana", "mine")
	require.NoError(t, err)
	r, err := repo.InsertReply(ctx, c.ID, "cmttest3-bob", "reply")
	require.NoError(t, err)

	assert.ErrorIs(t, repo.DeleteComment(ctx, c.ID, "cmttest3-bob"), comments.ErrCommentNotFound)
	assert.ErrorIs(t, repo.DeleteReply(ctx, r.ID, "cmttest3-ana"), comments.ErrReplyNotFound)

	require.NoError(t, repo.DeleteComment(ctx, c.ID, "cmttest3-ana"))
	assert.ErrorIs(t, repo.DeleteComment(ctx, c.ID, "cmttest3-ana"), comments.ErrCommentNotFound)

	// Replies go with their comment
	replies, err := repo.ListReplies(ctx, []string{c.ID})
	require.NoError(t, err)
	assert.Empty(t, replies)
}

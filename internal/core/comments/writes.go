package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rivo/uniseg"

	"Quad/internal/core/identity"
)

// MaxBodyGraphemes is the maximum comment or reply length in grapheme clusters
const MaxBodyGraphemes = 2000

// ValidateBody trims the body and checks it against the length limits
func ValidateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrContentEmpty
	}
	if uniseg.GraphemeClusterCount(body) > MaxBodyGraphemes {
		return "", ErrContentTooLong
	}
	return body, nil
}

// CreateComment writes a new comment and refreshes the tree so server-assigned
// ids and timestamps are what the tree shows
func (a *Assembler) CreateComment(ctx context.Context, tree *Tree, userID, body string) (*Comment, error) {
	body, err := ValidateBody(body)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrNotAuthorized
	}

	comment, err := a.repo.InsertComment(ctx, tree.PostID(), userID, body)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, err
		}
		a.logger.Error("failed to insert comment",
			"error", err,
			"post", tree.PostID(),
			"author", userID)
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	a.logger.Info("comment created",
		"post", tree.PostID(),
		"comment", comment.ID,
		"author", userID)

	if err := a.Refresh(ctx, tree); err != nil {
		// The write landed; show the returned row until the next refresh
		a.logger.Warn("failed to refresh comments after create",
			"error", err,
			"post", tree.PostID())
		tree.insertComment(&Node{
			Comment: *comment,
			Author:  a.authorOf(ctx, comment.AuthorID),
			Replies: make([]*ReplyNode, 0),
		})
	}
	return comment, nil
}

// CreateReply writes a reply under a comment and refreshes the tree
func (a *Assembler) CreateReply(ctx context.Context, tree *Tree, commentID, userID, body string) (*Reply, error) {
	body, err := ValidateBody(body)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrNotAuthorized
	}
	if _, ok := tree.FindComment(commentID); !ok {
		return nil, ErrCommentNotFound
	}

	reply, err := a.repo.InsertReply(ctx, commentID, userID, body)
	if err != nil {
		if errors.Is(err, ErrCommentNotFound) {
			return nil, err
		}
		a.logger.Error("failed to insert reply",
			"error", err,
			"comment", commentID,
			"author", userID)
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	a.logger.Info("reply created",
		"comment", commentID,
		"reply", reply.ID,
		"author", userID)

	if err := a.Refresh(ctx, tree); err != nil {
		a.logger.Warn("failed to refresh comments after reply",
			"error", err,
			"post", tree.PostID())
		if !tree.insertReply(&ReplyNode{
			Reply:  *reply,
			Author: a.authorOf(ctx, reply.AuthorID),
		}) {
			a.logger.Debug("parent comment left the tree before the reply was added",
				"comment", commentID,
				"reply", reply.ID)
		}
	}
	return reply, nil
}

// DeleteComment strips the comment from the tree before the write is confirmed.
// If the write fails the whole comment/reply set is re-fetched rather than
// patched back; if that re-fetch fails too, the pre-delete tree is restored.
func (a *Assembler) DeleteComment(ctx context.Context, tree *Tree, commentID, userID string) error {
	node, ok := tree.FindComment(commentID)
	if !ok {
		return ErrCommentNotFound
	}
	if userID == "" || node.Comment.AuthorID != userID {
		return ErrNotAuthorized
	}

	prev, ok := tree.stripComment(commentID)
	if !ok {
		return ErrCommentNotFound
	}

	err := a.repo.DeleteComment(ctx, commentID, userID)
	if err == nil || errors.Is(err, ErrCommentNotFound) {
		// Already gone server-side counts as deleted
		a.logger.Info("comment deleted",
			"post", tree.PostID(),
			"comment", commentID)
		return nil
	}

	a.logger.Error("failed to delete comment, refetching",
		"error", err,
		"post", tree.PostID(),
		"comment", commentID)
	a.recover(ctx, tree, prev)
	return fmt.Errorf("%w: %v", ErrWriteFailed, err)
}

// DeleteReply strips the reply optimistically, with the same fallback as DeleteComment
func (a *Assembler) DeleteReply(ctx context.Context, tree *Tree, replyID, userID string) error {
	node, _, ok := tree.FindReply(replyID)
	if !ok {
		return ErrReplyNotFound
	}
	if userID == "" || node.Reply.AuthorID != userID {
		return ErrNotAuthorized
	}

	prev, ok := tree.stripReply(replyID)
	if !ok {
		return ErrReplyNotFound
	}

	err := a.repo.DeleteReply(ctx, replyID, userID)
	if err == nil || errors.Is(err, ErrReplyNotFound) {
		a.logger.Info("reply deleted",
			"post", tree.PostID(),
			"reply", replyID)
		return nil
	}

	a.logger.Error("failed to delete reply, refetching",
		"error", err,
		"post", tree.PostID(),
		"reply", replyID)
	a.recover(ctx, tree, prev)
	return fmt.Errorf("%w: %v", ErrWriteFailed, err)
}

func (a *Assembler) recover(ctx context.Context, tree *Tree, prev []*Node) {
	if err := a.Refresh(ctx, tree); err != nil {
		a.logger.Warn("refetch after failed delete also failed, restoring tree",
			"error", err,
			"post", tree.PostID())
		tree.swap(prev)
	}
}

func (a *Assembler) authorOf(ctx context.Context, userID string) identity.Snapshot {
	return snapshotFor(a.identities.Resolve(ctx, []string{userID}), userID)
}

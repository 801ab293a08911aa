package client

import (
	"context"
	"net/http"
	"net/url"

	"Quad/internal/core/comments"
)

// maxReplyBatch matches the server's cap on comment ids per replies lookup
const maxReplyBatch = 500

var commentErrors = map[string]error{
	"PostNotFound":    comments.ErrPostNotFound,
	"CommentNotFound": comments.ErrCommentNotFound,
	"ReplyNotFound":   comments.ErrReplyNotFound,
	"ContentEmpty":    comments.ErrContentEmpty,
	"ContentTooLong":  comments.ErrContentTooLong,
	"NotAuthorized":   comments.ErrNotAuthorized,
}

// ListComments returns every comment on a post, oldest first
func (c *Client) ListComments(ctx context.Context, postID string) ([]comments.Comment, error) {
	var out struct {
		Comments []comments.Comment `json:"comments"`
	}
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/api/posts/" + postID + "/comments",
		out:        &out,
		errs:       commentErrors,
		idempotent: true,
	})
	return out.Comments, err
}

// ListReplies returns the replies to the given comments, chunking large batches
func (c *Client) ListReplies(ctx context.Context, commentIDs []string) ([]comments.Reply, error) {
	var result []comments.Reply
	for start := 0; start < len(commentIDs); start += maxReplyBatch {
		end := min(start+maxReplyBatch, len(commentIDs))

		var out struct {
			Replies []comments.Reply `json:"replies"`
		}
		err := c.do(ctx, request{
			method:     http.MethodGet,
			path:       "/api/replies",
			query:      url.Values{"comment_id": commentIDs[start:end]},
			out:        &out,
			errs:       commentErrors,
			idempotent: true,
		})
		if err != nil {
			return nil, err
		}
		result = append(result, out.Replies...)
	}
	return result, nil
}

// InsertComment writes a comment as userID
func (c *Client) InsertComment(ctx context.Context, postID, userID, body string) (*comments.Comment, error) {
	var out comments.Comment
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/posts/" + postID + "/comments",
		body:   map[string]string{"body": body},
		out:    &out,
		userID: userID,
		errs:   commentErrors,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// InsertReply writes a reply as userID
func (c *Client) InsertReply(ctx context.Context, commentID, userID, body string) (*comments.Reply, error) {
	var out comments.Reply
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/comments/" + commentID + "/replies",
		body:   map[string]string{"body": body},
		out:    &out,
		userID: userID,
		errs:   commentErrors,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment deletes one of userID's comments
func (c *Client) DeleteComment(ctx context.Context, commentID, userID string) error {
	return c.do(ctx, request{
		method:     http.MethodDelete,
		path:       "/api/comments/" + commentID,
		userID:     userID,
		errs:       commentErrors,
		idempotent: true,
	})
}

// DeleteReply deletes one of userID's replies
func (c *Client) DeleteReply(ctx context.Context, replyID, userID string) error {
	return c.do(ctx, request{
		method:     http.MethodDelete,
		path:       "/api/replies/" + replyID,
		userID:     userID,
		errs:       commentErrors,
		idempotent: true,
	})
}

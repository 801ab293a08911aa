package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"Quad/internal/core/feed"
)

var postErrors = map[string]error{
	"PostNotFound": feed.ErrPostNotFound,
}

// ListFeed returns up to limit posts, newest first
func (c *Client) ListFeed(ctx context.Context, limit int) ([]feed.Post, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var out struct {
		Posts []feed.Post `json:"posts"`
	}
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/api/posts",
		query:      query,
		out:        &out,
		errs:       postErrors,
		idempotent: true,
	})
	return out.Posts, err
}

// GetPost retrieves a post by id
func (c *Client) GetPost(ctx context.Context, postID string) (*feed.Post, error) {
	var out feed.Post
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/api/posts/" + postID,
		out:        &out,
		errs:       postErrors,
		idempotent: true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost publishes a post as authorID
func (c *Client) CreatePost(ctx context.Context, authorID, body string, tags feed.Tags) (*feed.Post, error) {
	if tags == nil {
		tags = feed.Tags{}
	}
	var out feed.Post
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/posts",
		body: struct {
			Body string    `json:"body"`
			Tags feed.Tags `json:"tags"`
		}{Body: body, Tags: tags},
		out:    &out,
		userID: authorID,
		errs:   postErrors,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePost removes one of authorID's posts
func (c *Client) DeletePost(ctx context.Context, postID, authorID string) error {
	return c.do(ctx, request{
		method:     http.MethodDelete,
		path:       "/api/posts/" + postID,
		userID:     authorID,
		errs:       postErrors,
		idempotent: true,
	})
}

package client

import (
	"context"
	"net/http"
	"net/url"

	"Quad/internal/core/engagement"
)

var likeErrors = map[string]error{
	"InvalidSubject":  engagement.ErrInvalidSubject,
	"SubjectNotFound": engagement.ErrStaleReference,
}

func subjectQuery(subject engagement.Subject) url.Values {
	return url.Values{
		"subject_type": {string(subject.Type)},
		"subject_id":   {subject.ID},
	}
}

// InsertLike likes subject as userID; liking twice is a no-op
func (c *Client) InsertLike(ctx context.Context, subject engagement.Subject, userID string) error {
	if err := subject.Validate(); err != nil {
		return err
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/likes",
		body: map[string]string{
			"subjectType": string(subject.Type),
			"subjectId":   subject.ID,
		},
		userID:     userID,
		errs:       likeErrors,
		idempotent: true,
	})
}

// DeleteLike removes userID's like of subject; a missing like is not an error
func (c *Client) DeleteLike(ctx context.Context, subject engagement.Subject, userID string) error {
	if err := subject.Validate(); err != nil {
		return err
	}
	return c.do(ctx, request{
		method:     http.MethodDelete,
		path:       "/api/likes",
		query:      subjectQuery(subject),
		userID:     userID,
		errs:       likeErrors,
		idempotent: true,
	})
}

// CountLikes returns the live like count of subject
func (c *Client) CountLikes(ctx context.Context, subject engagement.Subject) (int, error) {
	if err := subject.Validate(); err != nil {
		return 0, err
	}
	var out struct {
		Count int `json:"count"`
	}
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/api/likes/count",
		query:      subjectQuery(subject),
		out:        &out,
		errs:       likeErrors,
		idempotent: true,
	})
	return out.Count, err
}

// LikeExists reports whether userID likes subject
func (c *Client) LikeExists(ctx context.Context, subject engagement.Subject, userID string) (bool, error) {
	if err := subject.Validate(); err != nil {
		return false, err
	}
	q := subjectQuery(subject)
	q.Set("user_id", userID)

	var out struct {
		Exists bool `json:"exists"`
	}
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/api/likes/exists",
		query:      q,
		out:        &out,
		errs:       likeErrors,
		idempotent: true,
	})
	return out.Exists, err
}

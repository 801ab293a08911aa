package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/uniseg"
)

// MaxBodyGraphemes is the maximum post length in grapheme clusters
const MaxBodyGraphemes = 10000

// Post is one entry of the feed. LikeCount and CommentCount are derived
// values carried by the change stream and are never authoritative.
type Post struct {
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	ID           string    `json:"id" db:"id"`
	AuthorID     string    `json:"authorId" db:"author_id"`
	Body         string    `json:"body" db:"body"`
	Tags         Tags      `json:"tags" db:"tags"`
	LikeCount    int       `json:"likeCount" db:"like_count"`
	CommentCount int       `json:"commentCount" db:"comment_count"`
}

// Validate checks the fields the merger relies on
func (p Post) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: post id is required", ErrMalformedEvent)
	}
	if p.CreatedAt.IsZero() {
		return fmt.Errorf("%w: post %s has no creation time", ErrMalformedEvent, p.ID)
	}
	return nil
}

// newerFirst orders posts by creation descending, ties broken by id descending
func newerFirst(a, b Post) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// ValidateBody trims a new post's body and checks it against the length limit
func ValidateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrBodyEmpty
	}
	if uniseg.GraphemeClusterCount(body) > MaxBodyGraphemes {
		return "", ErrBodyTooLong
	}
	return body, nil
}

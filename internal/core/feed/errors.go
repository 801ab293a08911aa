package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEvent indicates a change event whose payload cannot be decoded
	ErrMalformedEvent = errors.New("malformed change event")

	// ErrUnknownPost indicates an update for a post the feed has never loaded
	ErrUnknownPost = errors.New("change event references unknown post")

	// ErrUnknownEventType indicates an event type other than insert, update or delete
	ErrUnknownEventType = errors.New("unknown change event type")

	// ErrStreamGap indicates the change stream may have dropped events
	ErrStreamGap = errors.New("change stream gap")

	// ErrViewClosed indicates the feed view was already torn down
	ErrViewClosed = errors.New("feed view closed")

	// ErrPostNotFound indicates the post does not exist or is not owned by the caller
	ErrPostNotFound = errors.New("post not found")

	// ErrBodyEmpty indicates a post without text
	ErrBodyEmpty = errors.New("post body is required")

	// ErrBodyTooLong indicates the body exceeds MaxBodyGraphemes
	ErrBodyTooLong = errors.New("post body exceeds 10000 graphemes")
)

// MergeError reports a change event that could not be folded into the feed.
// The feed recovers from it with a full refetch.
type MergeError struct {
	Err       error
	EventType EventType
	PostID    string
}

func (e *MergeError) Error() string {
	if e.PostID == "" {
		return fmt.Sprintf("merge %s event: %v", e.EventType, e.Err)
	}
	return fmt.Sprintf("merge %s event for post %s: %v", e.EventType, e.PostID, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// IsMergeFailure checks if an error requires a full refetch
func IsMergeFailure(err error) bool {
	var mergeErr *MergeError
	return errors.As(err, &mergeErr)
}

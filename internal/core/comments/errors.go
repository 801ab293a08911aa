package comments

import "errors"

var (
	// ErrCommentNotFound indicates the requested comment doesn't exist
	ErrCommentNotFound = errors.New("comment not found")

	// ErrReplyNotFound indicates the requested reply doesn't exist
	ErrReplyNotFound = errors.New("reply not found")

	// ErrPostNotFound indicates the post being commented on doesn't exist
	ErrPostNotFound = errors.New("post not found")

	// ErrContentEmpty indicates the comment body is empty
	ErrContentEmpty = errors.New("comment body is required")

	// ErrContentTooLong indicates the body exceeds MaxBodyGraphemes
	ErrContentTooLong = errors.New("comment body exceeds 2000 graphemes")

	// ErrNotAuthorized indicates the caller is not the author
	ErrNotAuthorized = errors.New("not authorized")

	// ErrWriteFailed wraps a backend failure on insert or delete
	ErrWriteFailed = errors.New("comment write failed")
)

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCommentNotFound) ||
		errors.Is(err, ErrReplyNotFound) ||
		errors.Is(err, ErrPostNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrContentEmpty) ||
		errors.Is(err, ErrContentTooLong)
}

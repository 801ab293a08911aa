package comments

import (
	"errors"
	"log/slog"
	"net/http"

	"Quad/internal/api/handlers"
	"Quad/internal/core/comments"
)

// handleServiceError maps comment repository errors to HTTP responses.
// Error names are stable; the client maps them back to sentinels.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, comments.ErrPostNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")
	case errors.Is(err, comments.ErrCommentNotFound):
		handlers.WriteError(w, http.StatusNotFound, "CommentNotFound", "Comment not found")
	case errors.Is(err, comments.ErrReplyNotFound):
		handlers.WriteError(w, http.StatusNotFound, "ReplyNotFound", "Reply not found")
	case errors.Is(err, comments.ErrContentEmpty):
		handlers.WriteError(w, http.StatusBadRequest, "ContentEmpty", err.Error())
	case errors.Is(err, comments.ErrContentTooLong):
		handlers.WriteError(w, http.StatusBadRequest, "ContentTooLong", err.Error())
	case errors.Is(err, comments.ErrNotAuthorized):
		handlers.WriteError(w, http.StatusForbidden, "NotAuthorized", "Only the author may do this")
	default:
		// Don't leak internal error details to clients
		slog.Default().Error("comments handler error", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}

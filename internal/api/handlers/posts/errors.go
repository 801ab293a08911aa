package posts

import (
	"errors"
	"log/slog"
	"net/http"

	"Quad/internal/api/handlers"
	"Quad/internal/core/feed"
)

// handleServiceError maps post repository errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feed.ErrPostNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")
	case errors.Is(err, feed.ErrBodyEmpty), errors.Is(err, feed.ErrBodyTooLong), errors.Is(err, feed.ErrMalformedEvent):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
	default:
		slog.Default().Error("posts handler error", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}

package likes

import (
	"errors"
	"log/slog"
	"net/http"

	"Quad/internal/api/handlers"
	"Quad/internal/core/engagement"
)

// handleServiceError maps like repository errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engagement.ErrInvalidSubject):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidSubject", err.Error())
	case errors.Is(err, engagement.ErrStaleReference):
		handlers.WriteError(w, http.StatusNotFound, "SubjectNotFound", "The liked subject no longer exists")
	default:
		slog.Default().Error("like handler error", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}

package session

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"Quad/internal/api/handlers"
	"Quad/internal/api/middleware"
	"Quad/internal/core/identity"
)

// Handler signs viewers in and out.
// It trusts the submitted user id; real authentication sits in front of it.
type Handler struct {
	users  identity.Repository
	viewer *middleware.ViewerMiddleware
}

// NewHandler creates a session handler
func NewHandler(users identity.Repository, viewer *middleware.ViewerMiddleware) *Handler {
	return &Handler{users: users, viewer: viewer}
}

// LoginInput is the request body of HandleLogin
type LoginInput struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// HandleLogin upserts the user's identity and starts a session
// POST /api/session
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if !handlers.DecodeJSON(w, r, &input) {
		return
	}
	snapshot := identity.Snapshot{
		UserID:      strings.TrimSpace(input.UserID),
		DisplayName: strings.TrimSpace(input.DisplayName),
		AvatarURL:   strings.TrimSpace(input.AvatarURL),
	}
	if snapshot.DisplayName == "" {
		snapshot.DisplayName = snapshot.UserID
	}

	if err := h.users.UpsertUser(r.Context(), snapshot); err != nil {
		if errors.Is(err, identity.ErrInvalidUser) {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
			return
		}
		slog.Default().Error("failed to upsert user", "user", snapshot.UserID, "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
		return
	}

	if err := h.viewer.Login(w, r, snapshot.UserID); err != nil {
		slog.Default().Error("failed to save session", "user", snapshot.UserID, "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
		return
	}
	handlers.WriteJSON(w, http.StatusOK, snapshot)
}

// HandleLogout ends the viewer's session
// DELETE /api/session
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.viewer.Logout(w, r); err != nil {
		slog.Default().Error("failed to clear session", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

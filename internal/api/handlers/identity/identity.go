package identity

import (
	"errors"
	"log/slog"
	"net/http"

	"Quad/internal/api/handlers"
	"Quad/internal/core/identity"
)

// Handler exposes batched identity lookups
type Handler struct {
	fetcher identity.Fetcher
}

// NewHandler creates an identity handler
func NewHandler(fetcher identity.Fetcher) *Handler {
	return &Handler{fetcher: fetcher}
}

// LookupInput is the request body of HandleLookup
type LookupInput struct {
	UserIDs []string `json:"userIds"`
}

// LookupOutput maps every known user id to its identity; unknown ids are omitted
type LookupOutput struct {
	Identities map[string]identity.Snapshot `json:"identities"`
}

// HandleLookup resolves display identities for a batch of users
// POST /api/identities
//
// Request body: { "userIds": ["alice", "bob"] }
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	var input LookupInput
	if !handlers.DecodeJSON(w, r, &input) {
		return
	}
	if len(input.UserIDs) > identity.MaxBatchSize {
		handlers.WriteError(w, http.StatusBadRequest, "TooManyIdentities", identity.ErrTooManyIdentities.Error())
		return
	}

	found, err := h.fetcher.FetchIdentities(r.Context(), input.UserIDs)
	if err != nil {
		if errors.Is(err, identity.ErrTooManyIdentities) {
			handlers.WriteError(w, http.StatusBadRequest, "TooManyIdentities", err.Error())
			return
		}
		slog.Default().Error("identity lookup failed", "users", len(input.UserIDs), "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
		return
	}
	if found == nil {
		found = map[string]identity.Snapshot{}
	}
	handlers.WriteJSON(w, http.StatusOK, LookupOutput{Identities: found})
}

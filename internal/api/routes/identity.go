package routes

import (
	"github.com/go-chi/chi/v5"

	"Quad/internal/api/handlers/identity"
	"Quad/internal/api/handlers/session"
	"Quad/internal/api/middleware"
	identityCore "Quad/internal/core/identity"
)

// RegisterIdentityRoutes registers identity lookup and the viewer session endpoints
func RegisterIdentityRoutes(r chi.Router, users identityCore.Repository, viewer *middleware.ViewerMiddleware) {
	lookup := identity.NewHandler(users)
	sessions := session.NewHandler(users, viewer)

	r.Post("/api/identities", lookup.HandleLookup)

	r.Post("/api/session", sessions.HandleLogin)
	r.Delete("/api/session", sessions.HandleLogout)
}

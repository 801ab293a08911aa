package routes

import (
	"github.com/go-chi/chi/v5"

	"Quad/internal/api/handlers/likes"
	"Quad/internal/api/middleware"
	"Quad/internal/core/engagement"
)

// RegisterLikeRoutes registers the likes relation endpoints
// Writes act on the viewer's own like and require a viewer
func RegisterLikeRoutes(r chi.Router, repo engagement.LikeRepository, viewer *middleware.ViewerMiddleware) {
	h := likes.NewHandler(repo)

	r.With(viewer.RequireViewer).Post("/api/likes", h.HandleLike)
	r.With(viewer.RequireViewer).Delete("/api/likes", h.HandleUnlike)

	r.Get("/api/likes/count", h.HandleCount)
	r.Get("/api/likes/exists", h.HandleExists)
}

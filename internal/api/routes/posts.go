package routes

import (
	"github.com/go-chi/chi/v5"

	"Quad/internal/api/handlers/posts"
	"Quad/internal/api/middleware"
	"Quad/internal/core/feed"
)

// RegisterPostRoutes registers the feed and post endpoints
func RegisterPostRoutes(r chi.Router, repo feed.Repository, pageSize int, viewer *middleware.ViewerMiddleware) {
	h := posts.NewHandler(repo, pageSize)

	r.Get("/api/posts", h.HandleList)
	r.Get("/api/posts/{postID}", h.HandleGet)

	r.With(viewer.RequireViewer).Post("/api/posts", h.HandleCreate)
	r.With(viewer.RequireViewer).Delete("/api/posts/{postID}", h.HandleDelete)
}

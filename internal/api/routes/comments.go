package routes

import (
	"github.com/go-chi/chi/v5"

	"Quad/internal/api/handlers/comments"
	"Quad/internal/api/middleware"
	commentsCore "Quad/internal/core/comments"
)

// RegisterCommentRoutes registers comment and reply endpoints
// All write operations (create, delete) require a viewer
func RegisterCommentRoutes(r chi.Router, repo commentsCore.Repository, viewer *middleware.ViewerMiddleware) {
	h := comments.NewHandler(repo)

	r.Get("/api/posts/{postID}/comments", h.HandleListComments)
	r.Get("/api/replies", h.HandleListReplies)

	r.With(viewer.RequireViewer).Post("/api/posts/{postID}/comments", h.HandleCreateComment)
	r.With(viewer.RequireViewer).Post("/api/comments/{commentID}/replies", h.HandleCreateReply)
	r.With(viewer.RequireViewer).Delete("/api/comments/{commentID}", h.HandleDeleteComment)
	r.With(viewer.RequireViewer).Delete("/api/replies/{replyID}", h.HandleDeleteReply)
}

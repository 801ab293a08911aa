package posts

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Quad/internal/api/handlers"
	"Quad/internal/api/middleware"
	"Quad/internal/core/feed"
)

// MaxLimit caps the limit query parameter of the feed endpoint
const MaxLimit = 200

// Handler exposes the posts collection
type Handler struct {
	repo     feed.Repository
	pageSize int
}

// NewHandler creates a posts handler; pageSize is the default feed page
func NewHandler(repo feed.Repository, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = feed.DefaultPageSize
	}
	return &Handler{repo: repo, pageSize: pageSize}
}

// CreateInput is the request body of post creation
type CreateInput struct {
	Body string    `json:"body"`
	Tags feed.Tags `json:"tags"`
}

// ListOutput is the response of HandleList
type ListOutput struct {
	Posts []feed.Post `json:"posts"`
}

// HandleList returns the newest posts first
// GET /api/posts?limit=50
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := h.pageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "limit must be a positive integer")
			return
		}
		limit = min(n, MaxLimit)
	}

	list, err := h.repo.ListFeed(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if list == nil {
		list = []feed.Post{}
	}
	handlers.WriteJSON(w, http.StatusOK, ListOutput{Posts: list})
}

// HandleGet returns a single post
// GET /api/posts/{postID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.repo.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, post)
}

// HandleCreate publishes a post by the viewer
// POST /api/posts
//
// Request body: { "body": "...", "tags": ["go", "feeds"] }
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if !handlers.DecodeJSON(w, r, &input) {
		return
	}
	body, err := feed.ValidateBody(input.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	post, err := h.repo.CreatePost(r.Context(), middleware.GetViewerID(r), body, input.Tags)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, post)
}

// HandleDelete removes one of the viewer's posts
// DELETE /api/posts/{postID}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeletePost(r.Context(), chi.URLParam(r, "postID"), middleware.GetViewerID(r)); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

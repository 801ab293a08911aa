package comments

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Quad/internal/api/handlers"
	"Quad/internal/api/middleware"
	"Quad/internal/core/comments"
)

// MaxReplyBatch caps the number of parent comments in one replies lookup
const MaxReplyBatch = 500

// Handler exposes comments and replies
type Handler struct {
	repo comments.Repository
}

// NewHandler creates a comments handler
func NewHandler(repo comments.Repository) *Handler {
	return &Handler{repo: repo}
}

// BodyInput is the request body of comment and reply creation
type BodyInput struct {
	Body string `json:"body"`
}

// ListCommentsOutput is the response of HandleListComments
type ListCommentsOutput struct {
	Comments []comments.Comment `json:"comments"`
}

// ListRepliesOutput is the response of HandleListReplies
type ListRepliesOutput struct {
	Replies []comments.Reply `json:"replies"`
}

// HandleListComments returns every comment on a post, oldest first
// GET /api/posts/{postID}/comments
func (h *Handler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	list, err := h.repo.ListComments(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if list == nil {
		list = []comments.Comment{}
	}
	handlers.WriteJSON(w, http.StatusOK, ListCommentsOutput{Comments: list})
}

// HandleListReplies returns the replies to a batch of comments
// GET /api/replies?comment_id=a&comment_id=b
func (h *Handler) HandleListReplies(w http.ResponseWriter, r *http.Request) {
	commentIDs := r.URL.Query()["comment_id"]
	if len(commentIDs) > MaxReplyBatch {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "too many comment ids")
		return
	}

	list := []comments.Reply{}
	if len(commentIDs) > 0 {
		var err error
		list, err = h.repo.ListReplies(r.Context(), commentIDs)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if list == nil {
			list = []comments.Reply{}
		}
	}
	handlers.WriteJSON(w, http.StatusOK, ListRepliesOutput{Replies: list})
}

// HandleCreateComment adds a comment by the viewer
// POST /api/posts/{postID}/comments
//
// Request body: { "body": "..." }
func (h *Handler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	var input BodyInput
	if !handlers.DecodeJSON(w, r, &input) {
		return
	}
	body, err := comments.ValidateBody(input.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.repo.InsertComment(r.Context(), chi.URLParam(r, "postID"), middleware.GetViewerID(r), body)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, created)
}

// HandleCreateReply adds a reply by the viewer
// POST /api/comments/{commentID}/replies
func (h *Handler) HandleCreateReply(w http.ResponseWriter, r *http.Request) {
	var input BodyInput
	if !handlers.DecodeJSON(w, r, &input) {
		return
	}
	body, err := comments.ValidateBody(input.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.repo.InsertReply(r.Context(), chi.URLParam(r, "commentID"), middleware.GetViewerID(r), body)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, created)
}

// HandleDeleteComment deletes one of the viewer's comments with its replies and likes
// DELETE /api/comments/{commentID}
func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteComment(r.Context(), chi.URLParam(r, "commentID"), middleware.GetViewerID(r)); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteReply deletes one of the viewer's replies
// DELETE /api/replies/{replyID}
func (h *Handler) HandleDeleteReply(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteReply(r.Context(), chi.URLParam(r, "replyID"), middleware.GetViewerID(r)); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

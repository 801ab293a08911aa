package likes

import (
	"net/http"

	"Quad/internal/api/handlers"
	"Quad/internal/api/middleware"
	"Quad/internal/core/engagement"
)

// Handler exposes the likes relation
type Handler struct {
	repo engagement.LikeRepository
}

// NewHandler creates a likes handler
func NewHandler(repo engagement.LikeRepository) *Handler {
	return &Handler{repo: repo}
}

// SubjectInput names the liked subject in request bodies
type SubjectInput struct {
	SubjectType string `json:"subjectType"`
	SubjectID   string `json:"subjectId"`
}

// CountOutput is the response of HandleCount
type CountOutput struct {
	Count int `json:"count"`
}

// ExistsOutput is the response of HandleExists
type ExistsOutput struct {
	Exists bool `json:"exists"`
}

func parseSubject(subjectType, subjectID string) (engagement.Subject, error) {
	t, err := engagement.ParseSubjectType(subjectType)
	if err != nil {
		return engagement.Subject{}, err
	}
	subject := engagement.Subject{Type: t, ID: subjectID}
	return subject, subject.Validate()
}

func subjectFromQuery(r *http.Request) (engagement.Subject, error) {
	q := r.URL.Query()
	return parseSubject(q.Get("subject_type"), q.Get("subject_id"))
}

// HandleLike inserts the viewer's like; liking twice is a no-op
// POST /api/likes
//
// Request body: { "subjectType": "post" | "comment" | "reply", "subjectId": "..." }
func (h *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	var input SubjectInput
	if !handlers.DecodeJSON(w, r, &input) {
		return
	}
	subject, err := parseSubject(input.SubjectType, input.SubjectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	viewerID := middleware.GetViewerID(r)
	if err := h.repo.InsertLike(r.Context(), subject, viewerID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnlike removes the viewer's like; a missing like is not an error
// DELETE /api/likes?subject_type=..&subject_id=..
func (h *Handler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectFromQuery(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	viewerID := middleware.GetViewerID(r)
	if err := h.repo.DeleteLike(r.Context(), subject, viewerID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCount returns the live like count of a subject
// GET /api/likes/count?subject_type=..&subject_id=..
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectFromQuery(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	count, err := h.repo.CountLikes(r.Context(), subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, CountOutput{Count: count})
}

// HandleExists reports whether a user likes a subject.
// user_id defaults to the viewer; an anonymous request without it is simply false.
// GET /api/likes/exists?subject_type=..&subject_id=..&user_id=..
func (h *Handler) HandleExists(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectFromQuery(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = middleware.GetViewerID(r)
	}
	if userID == "" {
		handlers.WriteJSON(w, http.StatusOK, ExistsOutput{})
		return
	}

	exists, err := h.repo.LikeExists(r.Context(), subject, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, ExistsOutput{Exists: exists})
}

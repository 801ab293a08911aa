package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"

	"Quad/internal/api/handlers"
)

type contextKey string

// ViewerIDKey holds the authenticated viewer's user id in the request context
const ViewerIDKey contextKey = "viewer_id"

const (
	// SessionName is the cookie carrying the viewer session
	SessionName = "quad_session"

	// ViewerHeader identifies the viewer for trusted clients without a cookie
	ViewerHeader = "X-Quad-User"

	sessionUserKey = "user_id"
	sessionMaxAge  = 30 * 24 * 60 * 60
)

// ViewerMiddleware resolves the viewer from the session cookie
type ViewerMiddleware struct {
	store       sessions.Store
	trustHeader bool
}

// NewCookieStore builds the signed cookie store for viewer sessions
func NewCookieStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// NewViewerMiddleware creates the viewer middleware.
// trustHeader enables the X-Quad-User fallback when no session cookie is present.
func NewViewerMiddleware(store sessions.Store, trustHeader bool) *ViewerMiddleware {
	return &ViewerMiddleware{store: store, trustHeader: trustHeader}
}

// LoadViewer injects the viewer id when one is present and never rejects
func (m *ViewerMiddleware) LoadViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if viewerID := m.viewerFrom(r); viewerID != "" {
			r = r.WithContext(WithViewerID(r.Context(), viewerID))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireViewer rejects requests without a viewer with 401
func (m *ViewerMiddleware) RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewerID := GetViewerID(r)
		if viewerID == "" {
			viewerID = m.viewerFrom(r)
		}
		if viewerID == "" {
			handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithViewerID(r.Context(), viewerID)))
	})
}

// Login stores userID in the viewer session
func (m *ViewerMiddleware) Login(w http.ResponseWriter, r *http.Request, userID string) error {
	session, err := m.store.Get(r, SessionName)
	if err != nil && session == nil {
		return err
	}
	session.Values[sessionUserKey] = userID
	return session.Save(r, w)
}

// Logout expires the viewer session
func (m *ViewerMiddleware) Logout(w http.ResponseWriter, r *http.Request) error {
	session, err := m.store.Get(r, SessionName)
	if err != nil && session == nil {
		return err
	}
	delete(session.Values, sessionUserKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

func (m *ViewerMiddleware) viewerFrom(r *http.Request) string {
	// a cookie that fails to decode yields a fresh session with no values
	if session, _ := m.store.Get(r, SessionName); session != nil {
		if id, ok := session.Values[sessionUserKey].(string); ok && id != "" {
			return id
		}
	}
	if m.trustHeader {
		return strings.TrimSpace(r.Header.Get(ViewerHeader))
	}
	return ""
}

// WithViewerID returns a context carrying viewerID
func WithViewerID(ctx context.Context, viewerID string) context.Context {
	return context.WithValue(ctx, ViewerIDKey, viewerID)
}

// GetViewerID extracts the viewer id from the request context
// Returns empty string if not authenticated
func GetViewerID(r *http.Request) string {
	viewerID, _ := r.Context().Value(ViewerIDKey).(string)
	return viewerID
}

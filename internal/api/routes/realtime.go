package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Quad/internal/core/feed"
	"Quad/internal/realtime"
)

// RegisterRealtimeRoutes mounts the websocket relay of post changes
func RegisterRealtimeRoutes(r chi.Router, source feed.ChangeSource, logger *slog.Logger) {
	r.Method(http.MethodGet, "/api/realtime/posts", realtime.NewRelay(source, logger))
}

// RegisterHealthRoutes registers the liveness probe
func RegisterHealthRoutes(r chi.Router, ping func() error) {
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if ping != nil {
			if err := ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("database unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

package realtime

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"Quad/internal/core/feed"
)

const relayBuffer = 64

// Relay streams post change events from a source to websocket clients.
// A client that falls behind gets a resync event instead of the dropped ones.
type Relay struct {
	source   feed.ChangeSource
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewRelay creates a relay over source
func NewRelay(source feed.ChangeSource, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		source: source,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and relays events until either side goes away
func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := rl.upgrader.Upgrade(w, r, nil)
	if err != nil {
		rl.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	out := make(chan feed.ChangeEvent, relayBuffer)
	var (
		mu      sync.Mutex
		dropped bool
	)
	sub, err := rl.source.SubscribePostChanges(r.Context(), func(ev feed.ChangeEvent) {
		select {
		case out <- ev:
		default:
			mu.Lock()
			dropped = true
			mu.Unlock()
		}
	})
	if err != nil {
		rl.logger.Error("failed to subscribe relay", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeTimeout))
		return
	}
	defer sub.Unsubscribe()

	rl.logger.Info("change stream client connected", "remote", r.RemoteAddr)

	// Reader: handles pongs and notices the client going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev feed.ChangeEvent) bool {
		data, err := EncodeEvent(ev)
		if err != nil {
			rl.logger.Error("failed to encode change event", "error", err)
			return true
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			rl.logger.Warn("failed to write change event", "error", err)
			return false
		}
		return true
	}
	takeDropped := func() bool {
		mu.Lock()
		defer mu.Unlock()
		was := dropped
		dropped = false
		return was
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			rl.logger.Info("change stream client disconnected", "remote", r.RemoteAddr)
			return

		case <-ticker.C:
			if takeDropped() && !send(feed.ResyncEvent()) {
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout)); err != nil {
				return
			}

		case ev := <-out:
			if takeDropped() {
				ev = feed.ResyncEvent()
			}
			if !send(ev) {
				return
			}
		}
	}
}

package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"Quad/internal/core/feed"
)

const (
	// DefaultReconnectDelay is the pause between websocket reconnect attempts
	DefaultReconnectDelay = 5 * time.Second

	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Connector is a feed.ChangeSource backed by the server's websocket stream.
// It reconnects on errors and emits a resync event after every reconnect.
type Connector struct {
	header         http.Header
	logger         *slog.Logger
	wsURL          string
	reconnectDelay time.Duration
}

// NewConnector creates a websocket connector for wsURL
func NewConnector(wsURL string, reconnectDelay time.Duration, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	if reconnectDelay <= 0 {
		reconnectDelay = DefaultReconnectDelay
	}
	return &Connector{
		wsURL:          wsURL,
		reconnectDelay: reconnectDelay,
		logger:         logger,
	}
}

// SetHeader sets headers sent with every dial, such as the viewer cookie
func (c *Connector) SetHeader(h http.Header) {
	c.header = h
}

type connSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *connSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// SubscribePostChanges dials the stream and delivers events until the
// subscription is dropped. The first dial is synchronous so a bad URL fails here.
func (c *Connector) SubscribePostChanges(ctx context.Context, onEvent func(feed.ChangeEvent)) (feed.Subscription, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := &connSubscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		c.run(runCtx, conn, onEvent)
	}()
	return sub, nil
}

func (c *Connector) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, c.header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to change stream: %w", err)
	}
	c.logger.Info("connected to change stream", "url", c.wsURL)
	return conn, nil
}

// run consumes conn and keeps reconnecting until ctx is cancelled
func (c *Connector) run(ctx context.Context, conn *websocket.Conn, onEvent func(feed.ChangeEvent)) {
	for {
		err := c.consume(ctx, conn, onEvent)
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("change stream connection error, reconnecting",
			"error", err,
			"delay", c.reconnectDelay)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.reconnectDelay):
			}
			conn, err = c.dial(ctx)
			if err == nil {
				break
			}
			c.logger.Warn("change stream reconnect failed", "error", err)
		}

		// Events sent while disconnected are lost
		onEvent(feed.ResyncEvent())
	}
}

// consume reads events from one connection until it fails or ctx ends
func (c *Connector) consume(ctx context.Context, conn *websocket.Conn, onEvent func(feed.ChangeEvent)) error {
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			c.logger.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		c.logger.Warn("failed to set read deadline", "error", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	done := make(chan struct{})
	var closeOnce sync.Once
	stop := func() { closeOnce.Do(func() { close(done) }) }
	defer stop()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout)); err != nil {
					c.logger.Warn("failed to send ping", "error", err)
					stop()
					_ = conn.Close()
					return
				}
			case <-ctx.Done():
				// Unblocks ReadMessage
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeTimeout))
				_ = conn.Close()
				return
			case <-done:
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}

		ev, err := DecodeEvent(message)
		if err != nil {
			// The frame may have carried a change we can no longer apply
			c.logger.Warn("failed to parse change event, requesting resync", "error", err)
			onEvent(feed.ResyncEvent())
			continue
		}
		onEvent(ev)
	}
}

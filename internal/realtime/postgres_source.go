package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"Quad/internal/core/feed"
)

// DefaultChannel is the NOTIFY channel the posts trigger publishes on
const DefaultChannel = "post_changes"

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	listenerPingInterval = 90 * time.Second
)

// PostgresSource listens for post change notifications and publishes them to a Hub
type PostgresSource struct {
	hub     *Hub
	logger  *slog.Logger
	dsn     string
	channel string
}

// NewPostgresSource creates a source listening on channel
func NewPostgresSource(dsn, channel string, hub *Hub, logger *slog.Logger) *PostgresSource {
	if logger == nil {
		logger = slog.Default()
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &PostgresSource{
		hub:     hub,
		logger:  logger,
		dsn:     dsn,
		channel: channel,
	}
}

// Run listens until ctx is cancelled. After a reconnect, or when a
// notification cannot be decoded, subscribers get a resync event because
// notifications may have been lost.
func (s *PostgresSource) Run(ctx context.Context) error {
	listener := pq.NewListener(s.dsn, minReconnectInterval, maxReconnectInterval, s.onListenerEvent)
	defer func() {
		if err := listener.Close(); err != nil {
			s.logger.Warn("failed to close listener", "error", err)
		}
	}()

	if err := listener.Listen(s.channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.channel, err)
	}
	s.logger.Info("listening for post changes", "channel", s.channel)

	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("post change listener shutting down")
			return ctx.Err()

		case n := <-listener.Notify:
			if n == nil {
				// Connection was re-established; anything sent meanwhile is gone
				s.hub.Publish(feed.ResyncEvent())
				continue
			}
			ev, err := DecodeNotification(n.Extra)
			if err != nil {
				s.logger.Warn("dropping undecodable post notification", "error", err)
				s.hub.Publish(feed.ResyncEvent())
				continue
			}
			s.hub.Publish(ev)

		case <-ticker.C:
			if err := listener.Ping(); err != nil {
				s.logger.Warn("listener ping failed", "error", err)
			}
		}
	}
}

func (s *PostgresSource) onListenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		s.logger.Debug("listener connected")
	case pq.ListenerEventDisconnected:
		s.logger.Warn("listener disconnected", "error", err)
	case pq.ListenerEventReconnected:
		s.logger.Info("listener reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		s.logger.Warn("listener connection attempt failed", "error", err)
	}
}

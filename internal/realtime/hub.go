package realtime

import (
	"context"
	"log/slog"
	"sync"

	"Quad/internal/core/feed"
)

// Hub fans post change events out to in-process subscribers.
// Callbacks run on the publisher's goroutine and must not block.
type Hub struct {
	subs   map[uint64]func(feed.ChangeEvent)
	logger *slog.Logger
	next   uint64
	mu     sync.RWMutex
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[uint64]func(feed.ChangeEvent)),
		logger: logger,
	}
}

type hubSubscription struct {
	hub  *Hub
	id   uint64
	once sync.Once
}

func (s *hubSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
	})
}

// SubscribePostChanges registers onEvent until the subscription is dropped
func (h *Hub) SubscribePostChanges(ctx context.Context, onEvent func(feed.ChangeEvent)) (feed.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	h.subs[h.next] = onEvent
	return &hubSubscription{hub: h, id: h.next}, nil
}

// Publish delivers ev to every current subscriber
func (h *Hub) Publish(ev feed.ChangeEvent) {
	h.mu.RLock()
	handlers := make([]func(feed.ChangeEvent), 0, len(h.subs))
	for _, fn := range h.subs {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	h.logger.Debug("publishing post change",
		"type", ev.Type,
		"subscribers", len(handlers))

	for _, fn := range handlers {
		fn(ev)
	}
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

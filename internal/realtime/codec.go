// Package realtime moves post change events between Postgres, the server
// and remote clients
package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"Quad/internal/core/feed"
)

// postRow mirrors row_to_json(posts) as sent by the notify trigger
type postRow struct {
	CreatedAt    time.Time `json:"created_at"`
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Body         string    `json:"body"`
	Tags         feed.Tags `json:"tags"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
}

type notification struct {
	Type   string          `json:"type"`
	Record json.RawMessage `json:"record"`
}

// DecodeNotification converts a post_changes NOTIFY payload into a ChangeEvent
func DecodeNotification(payload string) (feed.ChangeEvent, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return feed.ChangeEvent{}, fmt.Errorf("invalid notification payload: %w", err)
	}

	t := feed.EventType(n.Type)
	switch t {
	case feed.EventInsert, feed.EventUpdate, feed.EventDelete:
	default:
		return feed.ChangeEvent{}, fmt.Errorf("unknown notification type %q", n.Type)
	}

	var row postRow
	if err := json.Unmarshal(n.Record, &row); err != nil {
		return feed.ChangeEvent{}, fmt.Errorf("invalid notification record: %w", err)
	}
	if row.ID == "" {
		return feed.ChangeEvent{}, fmt.Errorf("notification record has no id")
	}
	if t == feed.EventDelete {
		return feed.DeleteEvent(row.ID), nil
	}

	// An id-only record (payload too large) still decodes here; the merger
	// rejects it for lacking a timestamp and the view refetches
	return feed.NewChangeEvent(t, feed.Post{
		ID:           row.ID,
		AuthorID:     row.AuthorID,
		Body:         row.Body,
		Tags:         row.Tags,
		LikeCount:    row.LikeCount,
		CommentCount: row.CommentCount,
		CreatedAt:    row.CreatedAt,
	})
}

// EncodeEvent serializes an event for the websocket stream
func EncodeEvent(ev feed.ChangeEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeEvent parses a websocket message into an event
func DecodeEvent(data []byte) (feed.ChangeEvent, error) {
	var ev feed.ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("invalid event message: %w", err)
	}
	if ev.Type == "" {
		return ev, fmt.Errorf("event message has no type")
	}
	return ev, nil
}

package feed

import (
	"encoding/json"
	"fmt"
)

// EventType is the kind of row change carried by a ChangeEvent
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
	// EventResync is emitted by a transport that may have missed events,
	// for example after a reconnect. It carries no record.
	EventResync EventType = "resync"
)

// ChangeEvent is one change notification for the posts collection.
// Record holds the row as JSON; delete events only need its id.
type ChangeEvent struct {
	Type   EventType       `json:"type"`
	Record json.RawMessage `json:"record"`
}

// NewChangeEvent encodes a post into an event
func NewChangeEvent(t EventType, p Post) (ChangeEvent, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return ChangeEvent{}, err
	}
	return ChangeEvent{Type: t, Record: raw}, nil
}

// DeleteEvent builds a delete event for a post id
func DeleteEvent(postID string) ChangeEvent {
	raw, _ := json.Marshal(struct {
		ID string `json:"id"`
	}{ID: postID})
	return ChangeEvent{Type: EventDelete, Record: raw}
}

// ResyncEvent builds the event a transport emits after a gap in delivery
func ResyncEvent() ChangeEvent {
	return ChangeEvent{Type: EventResync}
}

// DecodePost decodes and validates the full post record
func (e ChangeEvent) DecodePost() (Post, error) {
	var p Post
	if len(e.Record) == 0 {
		return p, fmt.Errorf("%w: empty record", ErrMalformedEvent)
	}
	if err := json.Unmarshal(e.Record, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// PostID extracts just the record's id
func (e ChangeEvent) PostID() (string, error) {
	var rec struct {
		ID string `json:"id"`
	}
	if len(e.Record) == 0 {
		return "", fmt.Errorf("%w: empty record", ErrMalformedEvent)
	}
	if err := json.Unmarshal(e.Record, &rec); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if rec.ID == "" {
		return "", fmt.Errorf("%w: record has no id", ErrMalformedEvent)
	}
	return rec.ID, nil
}

package feed

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTombstones is how many deleted post ids a merger remembers
const DefaultTombstones = 4096

// Merger folds change events into a Feed. Deleted ids are remembered so a
// late insert or update for a destroyed post is ignored.
type Merger struct {
	feed       *Feed
	tombstones *lru.Cache[string, struct{}]
	logger     *slog.Logger
}

// NewMerger creates a merger over feed remembering up to tombstones deleted ids
func NewMerger(feed *Feed, tombstones int, logger *slog.Logger) (*Merger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if tombstones <= 0 {
		tombstones = DefaultTombstones
	}
	cache, err := lru.New[string, struct{}](tombstones)
	if err != nil {
		return nil, fmt.Errorf("failed to create tombstone cache: %w", err)
	}
	return &Merger{feed: feed, tombstones: cache, logger: logger}, nil
}

// Feed returns the collection the merger writes to
func (m *Merger) Feed() *Feed {
	return m.feed
}

// Apply folds one event into the feed. A *MergeError means the event could
// not be applied and the caller must refetch the whole feed.
func (m *Merger) Apply(ev ChangeEvent) error {
	switch ev.Type {
	case EventDelete:
		return m.applyDelete(ev)
	case EventInsert, EventUpdate:
		return m.applyUpsert(ev)
	case EventResync:
		return &MergeError{EventType: ev.Type, Err: ErrStreamGap}
	}
	return &MergeError{EventType: ev.Type, Err: fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)}
}

func (m *Merger) applyDelete(ev ChangeEvent) error {
	id, err := ev.PostID()
	if err != nil {
		return &MergeError{EventType: ev.Type, Err: err}
	}

	m.tombstones.Add(id, struct{}{})
	if !m.feed.Remove(id) {
		m.logger.Debug("delete for post not in feed", "post", id)
	}
	return nil
}

func (m *Merger) applyUpsert(ev ChangeEvent) error {
	post, err := ev.DecodePost()
	if err != nil {
		id, _ := ev.PostID()
		return &MergeError{EventType: ev.Type, PostID: id, Err: err}
	}

	if m.tombstones.Contains(post.ID) {
		m.logger.Debug("ignoring change for deleted post",
			"post", post.ID,
			"type", ev.Type)
		return nil
	}

	if ev.Type == EventUpdate {
		if _, ok := m.feed.Get(post.ID); !ok {
			return &MergeError{EventType: ev.Type, PostID: post.ID, Err: ErrUnknownPost}
		}
	}

	m.feed.Upsert(post)
	return nil
}

// Reset replaces the feed with a refetched page. Posts deleted since the
// refetch was issued stay out.
func (m *Merger) Reset(posts []Post) {
	kept := make([]Post, 0, len(posts))
	for _, p := range posts {
		if m.tombstones.Contains(p.ID) {
			continue
		}
		kept = append(kept, p)
	}
	m.feed.Replace(kept)
}

package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Quad/internal/core/comments"
	"Quad/internal/core/engagement"
	"Quad/internal/core/feed"
	"Quad/internal/core/identity"
)

// memBackend is an in-memory stand-in for the Postgres repositories
type memBackend struct {
	users    map[string]identity.Snapshot
	posts    map[string]feed.Post
	comments map[string]comments.Comment
	replies  map[string]comments.Reply
	likes    map[string]map[string]bool
	clock    time.Time
	nextID   int
	failNext error
	mu       sync.Mutex
}

func newMemBackend() *memBackend {
	return &memBackend{
		users:    map[string]identity.Snapshot{},
		posts:    map[string]feed.Post{},
		comments: map[string]comments.Comment{},
		replies:  map[string]comments.Reply{},
		likes:    map[string]map[string]bool{},
		clock:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *memBackend) tick(prefix string) (string, time.Time) {
	b.nextID++
	b.clock = b.clock.Add(time.Second)
	return fmt.Sprintf("%s%d", prefix, b.nextID), b.clock
}

func (b *memBackend) takeFailure() error {
	err := b.failNext
	b.failNext = nil
	return err
}

func (b *memBackend) subjectExists(s engagement.Subject) bool {
	switch s.Type {
	case engagement.SubjectPost:
		_, ok := b.posts[s.ID]
		return ok
	case engagement.SubjectComment:
		_, ok := b.comments[s.ID]
		return ok
	case engagement.SubjectReply:
		_, ok := b.replies[s.ID]
		return ok
	}
	return false
}

func (b *memBackend) InsertLike(ctx context.Context, s engagement.Subject, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	if !b.subjectExists(s) {
		return engagement.ErrStaleReference
	}
	if b.likes[s.String()] == nil {
		b.likes[s.String()] = map[string]bool{}
	}
	b.likes[s.String()][userID] = true
	return nil
}

func (b *memBackend) DeleteLike(ctx context.Context, s engagement.Subject, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	delete(b.likes[s.String()], userID)
	return nil
}

func (b *memBackend) CountLikes(ctx context.Context, s engagement.Subject) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.likes[s.String()]), nil
}

func (b *memBackend) LikeExists(ctx context.Context, s engagement.Subject, userID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.likes[s.String()][userID], nil
}

func (b *memBackend) ListComments(ctx context.Context, postID string) ([]comments.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var list []comments.Comment
	for _, c := range b.comments {
		if c.PostID == postID {
			list = append(list, c)
		}
	}
	comments.SortComments(list)
	return list, nil
}

func (b *memBackend) ListReplies(ctx context.Context, commentIDs []string) ([]comments.Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range commentIDs {
		wanted[id] = true
	}
	var list []comments.Reply
	for _, r := range b.replies {
		if wanted[r.ParentCommentID] {
			list = append(list, r)
		}
	}
	comments.SortReplies(list)
	return list, nil
}

func (b *memBackend) InsertComment(ctx context.Context, postID, userID, body string) (*comments.Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.posts[postID]; !ok {
		return nil, comments.ErrPostNotFound
	}
	id, at := b.tick("c")
	c := comments.Comment{ID: id, PostID: postID, AuthorID: userID, Body: body, CreatedAt: at}
	b.comments[id] = c
	return &c, nil
}

func (b *memBackend) InsertReply(ctx context.Context, commentID, userID, body string) (*comments.Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.comments[commentID]; !ok {
		return nil, comments.ErrCommentNotFound
	}
	id, at := b.tick("r")
	r := comments.Reply{ID: id, ParentCommentID: commentID, AuthorID: userID, Body: body, CreatedAt: at}
	b.replies[id] = r
	return &r, nil
}

func (b *memBackend) DeleteComment(ctx context.Context, commentID, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.comments[commentID]
	if !ok || c.AuthorID != userID {
		return comments.ErrCommentNotFound
	}
	delete(b.comments, commentID)
	for id, r := range b.replies {
		if r.ParentCommentID == commentID {
			delete(b.replies, id)
		}
	}
	return nil
}

func (b *memBackend) DeleteReply(ctx context.Context, replyID, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.replies[replyID]
	if !ok || r.AuthorID != userID {
		return comments.ErrReplyNotFound
	}
	delete(b.replies, replyID)
	return nil
}

func (b *memBackend) FetchIdentities(ctx context.Context, userIDs []string) (map[string]identity.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(userIDs) > identity.MaxBatchSize {
		return nil, identity.ErrTooManyIdentities
	}
	found := map[string]identity.Snapshot{}
	for _, id := range userIDs {
		if s, ok := b.users[id]; ok {
			found[id] = s
		}
	}
	return found, nil
}

func (b *memBackend) UpsertUser(ctx context.Context, s identity.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.UserID == "" || s.DisplayName == "" {
		return identity.ErrInvalidUser
	}
	b.users[s.UserID] = s
	return nil
}

func (b *memBackend) ListFeed(ctx context.Context, limit int) ([]feed.Post, error) {
	b.mu.Lock()
	list := make([]feed.Post, 0, len(b.posts))
	for _, p := range b.posts {
		list = append(list, p)
	}
	b.mu.Unlock()

	posts := feed.NewFeed(list).Posts()
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (b *memBackend) GetPost(ctx context.Context, postID string) (*feed.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.posts[postID]
	if !ok {
		return nil, feed.ErrPostNotFound
	}
	return &p, nil
}

func (b *memBackend) CreatePost(ctx context.Context, authorID, body string, tags feed.Tags) (*feed.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, at := b.tick("p")
	if tags == nil {
		tags = feed.Tags{}
	}
	p := feed.Post{ID: id, AuthorID: authorID, Body: body, Tags: tags, CreatedAt: at}
	b.posts[id] = p
	return &p, nil
}

func (b *memBackend) DeletePost(ctx context.Context, postID, authorID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.posts[postID]
	if !ok || p.AuthorID != authorID {
		return feed.ErrPostNotFound
	}
	delete(b.posts, postID)
	return nil
}

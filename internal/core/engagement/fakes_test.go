package engagement

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"Quad/internal/core/comments"
)

// fakeLikes is an in-memory likes relation with failure and timing hooks
type fakeLikes struct {
	insertErr error
	deleteErr error
	countErr  error
	existsErr error
	rows      map[Subject]map[string]bool
	gate      chan struct{}
	started   chan struct{}
	onWrite   func()
	writes    int
	counts    int
	active    int
	maxActive int
	mu        sync.Mutex
}

func newFakeLikes() *fakeLikes {
	return &fakeLikes{rows: make(map[Subject]map[string]bool)}
}

func (f *fakeLikes) seed(subject Subject, users ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows[subject] == nil {
		f.rows[subject] = make(map[string]bool)
	}
	for _, u := range users {
		f.rows[subject][u] = true
	}
}

func (f *fakeLikes) set(fn func(f *fakeLikes)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeLikes) has(subject Subject, user string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[subject][user]
}

func (f *fakeLikes) InsertLike(ctx context.Context, subject Subject, userID string) error {
	return f.write(ctx, subject, userID, true)
}

func (f *fakeLikes) DeleteLike(ctx context.Context, subject Subject, userID string) error {
	return f.write(ctx, subject, userID, false)
}

func (f *fakeLikes) write(ctx context.Context, subject Subject, userID string, insert bool) error {
	f.mu.Lock()
	f.writes++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	gate, started, hook := f.gate, f.started, f.onWrite
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if insert {
		if f.insertErr != nil {
			return f.insertErr
		}
		if f.rows[subject] == nil {
			f.rows[subject] = make(map[string]bool)
		}
		f.rows[subject][userID] = true
		return nil
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows[subject], userID)
	return nil
}

func (f *fakeLikes) CountLikes(ctx context.Context, subject Subject) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.rows[subject]), nil
}

func (f *fakeLikes) LikeExists(ctx context.Context, subject Subject, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.rows[subject][userID], nil
}

// threadRepo is an in-memory comments.Repository
type threadRepo struct {
	listErr   error
	deleteErr error
	comments  map[string]comments.Comment
	replies   map[string]comments.Reply
	nextID    int
	mu        sync.Mutex
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newThreadRepo() *threadRepo {
	return &threadRepo{
		comments: make(map[string]comments.Comment),
		replies:  make(map[string]comments.Reply),
	}
}

func (r *threadRepo) addComment(id, postID, author string, minute int) {
	r.comments[id] = comments.Comment{
		ID:        id,
		PostID:    postID,
		AuthorID:  author,
		Body:      "comment " + id,
		CreatedAt: epoch.Add(time.Duration(minute) * time.Minute),
	}
}

func (r *threadRepo) addReply(id, parentID, author string, minute int) {
	r.replies[id] = comments.Reply{
		ID:              id,
		ParentCommentID: parentID,
		AuthorID:        author,
		Body:            "reply " + id,
		CreatedAt:       epoch.Add(time.Duration(minute) * time.Minute),
	}
}

func (r *threadRepo) ListComments(ctx context.Context, postID string) ([]comments.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]comments.Comment, 0)
	for _, c := range r.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	comments.SortComments(out)
	return out, nil
}

func (r *threadRepo) ListReplies(ctx context.Context, commentIDs []string) ([]comments.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	want := make(map[string]bool, len(commentIDs))
	for _, id := range commentIDs {
		want[id] = true
	}
	out := make([]comments.Reply, 0)
	for _, rep := range r.replies {
		if want[rep.ParentCommentID] {
			out = append(out, rep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *threadRepo) InsertComment(ctx context.Context, postID, userID, body string) (*comments.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c := comments.Comment{
		ID:        fmt.Sprintf("new-c%d", r.nextID),
		PostID:    postID,
		AuthorID:  userID,
		Body:      body,
		CreatedAt: epoch.Add(time.Hour + time.Duration(r.nextID)*time.Minute),
	}
	r.comments[c.ID] = c
	return &c, nil
}

func (r *threadRepo) InsertReply(ctx context.Context, commentID, userID, body string) (*comments.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[commentID]; !ok {
		return nil, comments.ErrCommentNotFound
	}
	r.nextID++
	rep := comments.Reply{
		ID:              fmt.Sprintf("new-r%d", r.nextID),
		ParentCommentID: commentID,
		AuthorID:        userID,
		Body:            body,
		CreatedAt:       epoch.Add(time.Hour + time.Duration(r.nextID)*time.Minute),
	}
	r.replies[rep.ID] = rep
	return &rep, nil
}

func (r *threadRepo) DeleteComment(ctx context.Context, commentID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	c, ok := r.comments[commentID]
	if !ok || c.AuthorID != userID {
		return comments.ErrCommentNotFound
	}
	delete(r.comments, commentID)
	for id, rep := range r.replies {
		if rep.ParentCommentID == commentID {
			delete(r.replies, id)
		}
	}
	return nil
}

func (r *threadRepo) DeleteReply(ctx context.Context, replyID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	rep, ok := r.replies[replyID]
	if !ok || rep.AuthorID != userID {
		return comments.ErrReplyNotFound
	}
	delete(r.replies, replyID)
	return nil
}

package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	handlers     map[int]func(ChangeEvent)
	subscribeErr error
	nextID       int
	mu           sync.Mutex
}

type fakeSub struct {
	src *fakeSource
	id  int
}

func (s *fakeSub) Unsubscribe() {
	s.src.mu.Lock()
	defer s.src.mu.Unlock()
	delete(s.src.handlers, s.id)
}

func newFakeSource() *fakeSource {
	return &fakeSource{handlers: make(map[int]func(ChangeEvent))}
}

func (s *fakeSource) SubscribePostChanges(ctx context.Context, onEvent func(ChangeEvent)) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	s.nextID++
	s.handlers[s.nextID] = onEvent
	return &fakeSub{src: s, id: s.nextID}, nil
}

func (s *fakeSource) emit(ev ChangeEvent) {
	s.mu.Lock()
	handlers := make([]func(ChangeEvent), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (s *fakeSource) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

type fakeLoader struct {
	err   error
	posts []Post
	calls int
	limit int
	mu    sync.Mutex
}

func (l *fakeLoader) ListFeed(ctx context.Context, limit int) ([]Post, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.limit = limit
	if l.err != nil {
		return nil, l.err
	}
	out := make([]Post, len(l.posts))
	copy(out, l.posts)
	return out, nil
}

func (l *fakeLoader) set(posts []Post, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.posts = posts
	l.err = err
}

func (l *fakeLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func flush(t *testing.T, v *FeedView) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, v.Flush(ctx))
}

func TestFeedView_LoadsAndMerges(t *testing.T) {
	src := newFakeSource()
	loader := &fakeLoader{posts: []Post{post("a", 1), post("b", 2)}}

	var changes int
	var mu sync.Mutex
	v, err := OpenFeedView(context.Background(), src, loader, Options{
		PageSize: 20,
		OnChange: func([]Post) {
			mu.Lock()
			changes++
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	defer v.Close()

	assert.Equal(t, 20, loader.limit)
	assert.Equal(t, []string{"b", "a"}, ids(v.Posts()))

	src.emit(event(t, EventInsert, post("c", 3)))
	src.emit(DeleteEvent("a"))
	flush(t, v)

	assert.Equal(t, []string{"c", "b"}, ids(v.Posts()))
	mu.Lock()
	assert.Equal(t, 2, changes)
	mu.Unlock()
}

func TestFeedView_MergeFailureRefetches(t *testing.T) {
	src := newFakeSource()
	loader := &fakeLoader{posts: []Post{post("a", 1)}}

	v, err := OpenFeedView(context.Background(), src, loader, Options{})
	require.NoError(t, err)
	defer v.Close()
	assert.Equal(t, DefaultPageSize, loader.limit)

	loader.set([]Post{post("a", 1), post("ghost", 2)}, nil)
	src.emit(event(t, EventUpdate, post("ghost", 2)))
	flush(t, v)

	assert.Equal(t, 2, loader.callCount())
	assert.Equal(t, []string{"ghost", "a"}, ids(v.Posts()))
}

func TestFeedView_FailedRefetchRetriesOnNextEvent(t *testing.T) {
	src := newFakeSource()
	loader := &fakeLoader{posts: []Post{post("a", 1)}}

	v, err := OpenFeedView(context.Background(), src, loader, Options{})
	require.NoError(t, err)
	defer v.Close()

	loader.set(nil, errors.New("offline"))
	src.emit(ChangeEvent{Type: EventInsert})
	flush(t, v)

	// The feed keeps its last good state instead of a partial merge
	assert.Equal(t, []string{"a"}, ids(v.Posts()))

	loader.set([]Post{post("a", 1), post("b", 2)}, nil)
	src.emit(event(t, EventInsert, post("c", 3)))
	flush(t, v)

	assert.Equal(t, 3, loader.callCount())
	assert.Equal(t, []string{"b", "a"}, ids(v.Posts()))
}

func TestFeedView_CloseUnsubscribes(t *testing.T) {
	src := newFakeSource()
	loader := &fakeLoader{posts: []Post{post("a", 1)}}

	v, err := OpenFeedView(context.Background(), src, loader, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, src.subscribers())

	v.Close()
	v.Close()
	assert.Equal(t, 0, src.subscribers())

	// A late delivery through a stale handler is dropped
	v.deliver(event(t, EventInsert, post("late", 5)))
	assert.Equal(t, []string{"a"}, ids(v.Posts()))
	assert.ErrorIs(t, v.Flush(context.Background()), ErrViewClosed)
}

func TestFeedView_OpenFailures(t *testing.T) {
	src := newFakeSource()
	src.subscribeErr = errors.New("dial failed")
	_, err := OpenFeedView(context.Background(), src, &fakeLoader{}, Options{})
	assert.Error(t, err)

	src = newFakeSource()
	_, err = OpenFeedView(context.Background(), src, &fakeLoader{err: errors.New("500")}, Options{})
	assert.Error(t, err)
	assert.Equal(t, 0, src.subscribers(), "failed open must not leak a subscription")
}

package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultPageSize is the number of posts loaded on open and on every refetch
	DefaultPageSize = 50

	eventBuffer    = 256
	refetchTimeout = 30 * time.Second
)

// Options configures a FeedView
type Options struct {
	Logger *slog.Logger
	// OnChange is called from the view's goroutine after the feed changed
	OnChange   func(posts []Post)
	PageSize   int
	Tombstones int
}

type item struct {
	ack chan struct{}
	ev  ChangeEvent
}

// FeedView owns one feed, its change-stream subscription and the goroutine
// that applies events in arrival order. Close tears the subscription down;
// events delivered afterwards are dropped.
type FeedView struct {
	merger   *Merger
	loader   Loader
	sub      Subscription
	logger   *slog.Logger
	onChange func([]Post)
	queue    chan item
	done     chan struct{}
	cancel   context.CancelFunc
	pageSize int
	stale    bool
	closed   bool
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// OpenFeedView subscribes to post changes, loads the first page and starts
// merging. Events that arrive during the initial load are buffered and
// applied on top of it.
func OpenFeedView(ctx context.Context, source ChangeSource, loader Loader, opts Options) (*FeedView, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	merger, err := NewMerger(NewFeed(nil), opts.Tombstones, logger)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	v := &FeedView{
		merger:   merger,
		loader:   loader,
		logger:   logger,
		onChange: opts.OnChange,
		pageSize: pageSize,
		queue:    make(chan item, eventBuffer),
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	sub, err := source.SubscribePostChanges(ctx, v.deliver)
	if err != nil {
		cancel()
		return nil, err
	}
	v.sub = sub

	posts, err := loader.ListFeed(ctx, pageSize)
	if err != nil {
		sub.Unsubscribe()
		cancel()
		return nil, err
	}
	merger.Reset(posts)

	v.wg.Add(1)
	go v.run(runCtx)

	logger.Info("feed view opened", "posts", len(posts))
	return v, nil
}

// Posts returns the current feed, newest first
func (v *FeedView) Posts() []Post {
	return v.merger.Feed().Posts()
}

// Feed returns the underlying collection
func (v *FeedView) Feed() *Feed {
	return v.merger.Feed()
}

// deliver is the subscription callback. It never blocks the source: when
// the queue is full the event is dropped and the feed is marked for refetch.
func (v *FeedView) deliver(ev ChangeEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	select {
	case v.queue <- item{ev: ev}:
	default:
		v.logger.Warn("feed event queue full, scheduling refetch", "type", ev.Type)
		v.stale = true
	}
}

// Flush blocks until every event delivered before the call has been applied
func (v *FeedView) Flush(ctx context.Context) error {
	ack := make(chan struct{})

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	v.mu.Unlock()

	select {
	case v.queue <- item{ack: ack}:
	case <-v.done:
		return ErrViewClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-v.done:
		return ErrViewClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh refetches the feed immediately
func (v *FeedView) Refresh(ctx context.Context) error {
	posts, err := v.loader.ListFeed(ctx, v.pageSize)
	if err != nil {
		return err
	}
	v.merger.Reset(posts)
	v.notify()
	return nil
}

// Close unsubscribes and stops the merge goroutine. It is safe to call more than once.
func (v *FeedView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.sub.Unsubscribe()
	v.cancel()
	close(v.done)
	v.wg.Wait()
	v.logger.Info("feed view closed")
}

func (v *FeedView) run(ctx context.Context) {
	defer v.wg.Done()

	for {
		select {
		case <-v.done:
			return
		case it := <-v.queue:
			if it.ack != nil {
				close(it.ack)
				continue
			}
			v.handle(ctx, it.ev)
		}
	}
}

func (v *FeedView) handle(ctx context.Context, ev ChangeEvent) {
	v.mu.Lock()
	stale := v.stale
	v.stale = false
	v.mu.Unlock()

	if stale {
		// The refetch covers this event too
		v.refetch(ctx, nil)
		return
	}

	if err := v.merger.Apply(ev); err != nil {
		v.refetch(ctx, err)
		return
	}
	v.notify()
}

func (v *FeedView) refetch(ctx context.Context, cause error) {
	if cause != nil {
		v.logger.Warn("change event could not be merged, refetching feed", "error", cause)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, refetchTimeout)
	defer cancel()

	if err := v.Refresh(fetchCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		v.logger.Error("feed refetch failed", "error", err)
		v.mu.Lock()
		v.stale = true
		v.mu.Unlock()
	}
}

func (v *FeedView) notify() {
	if v.onChange != nil {
		v.onChange(v.Posts())
	}
}

package feed

import (
	"sort"
	"sync"
)

// Feed is the ordered post collection behind one feed view, newest first.
// It never holds two entries with the same id.
type Feed struct {
	posts []Post
	mu    sync.RWMutex
}

// NewFeed creates a feed from an initial page
func NewFeed(posts []Post) *Feed {
	f := &Feed{}
	f.Replace(posts)
	return f
}

// Posts returns a copy of the collection in display order
func (f *Feed) Posts() []Post {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Post, len(f.posts))
	copy(out, f.posts)
	return out
}

// Len returns the number of posts
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.posts)
}

// Get looks up a post by id
func (f *Feed) Get(id string) (Post, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if i := f.indexOf(id); i >= 0 {
		return f.posts[i], true
	}
	return Post{}, false
}

// Replace swaps in a freshly loaded page, dropping duplicate ids
func (f *Feed) Replace(posts []Post) {
	seen := make(map[string]bool, len(posts))
	next := make([]Post, 0, len(posts))
	for _, p := range posts {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		next = append(next, p)
	}
	sort.SliceStable(next, func(i, j int) bool { return newerFirst(next[i], next[j]) })

	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = next
}

// Upsert removes any entry with the post's id, prepends the post, then
// re-sorts the whole collection. A post whose timestamp changed moves to
// its new position.
func (f *Feed) Upsert(p Post) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make([]Post, 0, len(f.posts)+1)
	next = append(next, p)
	for _, existing := range f.posts {
		if existing.ID != p.ID {
			next = append(next, existing)
		}
	}
	sort.SliceStable(next, func(i, j int) bool { return newerFirst(next[i], next[j]) })
	f.posts = next
}

// Remove drops the post with id; it reports false if there was none
func (f *Feed) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(id)
	if i < 0 {
		return false
	}
	next := make([]Post, 0, len(f.posts)-1)
	next = append(next, f.posts[:i]...)
	next = append(next, f.posts[i+1:]...)
	f.posts = next
	return true
}

func (f *Feed) indexOf(id string) int {
	for i, p := range f.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

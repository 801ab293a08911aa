package engagement

import (
	"sync"

	"Quad/internal/core/comments"
)

type replyEntry struct {
	reply comments.Reply
	like  LikeState
}

type commentEntry struct {
	replies    map[string]*replyEntry
	comment    comments.Comment
	replyOrder []string
	like       LikeState
}

// Store holds the engagement state of one open post detail view: the post's
// like state and comment count, plus every comment and reply with its own
// like state. Every method is applied atomically under the store lock.
//
// Once Close is called the view is gone: mutations become no-ops returning
// ErrStoreClosed, while reads keep answering from the last state.
type Store struct {
	comments     map[string]*commentEntry
	replyParent  map[string]string
	postID       string
	order        []string
	post         LikeState
	commentCount int
	closed       bool
	mu           sync.RWMutex
}

// NewStore creates an empty store for a post
func NewStore(postID string) *Store {
	return &Store{
		postID:      postID,
		comments:    make(map[string]*commentEntry),
		replyParent: make(map[string]string),
	}
}

// PostID returns the post this store tracks
func (s *Store) PostID() string {
	return s.postID
}

// Close discards the store. Late writes and rollbacks become no-ops.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Live reports whether the owning view is still open
func (s *Store) Live() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// LikeState returns the current state of a subject
func (s *Store) LikeState(subject Subject) (LikeState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.lookup(subject)
	if !ok {
		return LikeState{}, false
	}
	return *st, true
}

// SetLikeState overwrites a subject's state. Negative counts are clamped to zero.
func (s *Store) SetLikeState(subject Subject, state LikeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	st, ok := s.lookup(subject)
	if !ok {
		return ErrStaleReference
	}
	if state.Count < 0 {
		state.Count = 0
	}
	*st = state
	return nil
}

// ApplyDelta sets the liked flag and moves the count by delta in one step,
// never letting the count drop below zero
func (s *Store) ApplyDelta(subject Subject, liked bool, delta int) (LikeState, error) {
	if delta < -1 || delta > 1 {
		return LikeState{}, ErrInvalidDelta
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return LikeState{}, ErrStoreClosed
	}
	st, ok := s.lookup(subject)
	if !ok {
		return LikeState{}, ErrStaleReference
	}
	st.Liked = liked
	st.Count += delta
	if st.Count < 0 {
		st.Count = 0
	}
	return *st, nil
}

// lookup must be called with the lock held
func (s *Store) lookup(subject Subject) (*LikeState, bool) {
	switch subject.Type {
	case SubjectPost:
		if subject.ID != s.postID {
			return nil, false
		}
		return &s.post, true
	case SubjectComment:
		entry, ok := s.comments[subject.ID]
		if !ok {
			return nil, false
		}
		return &entry.like, true
	case SubjectReply:
		parent, ok := s.replyParent[subject.ID]
		if !ok {
			return nil, false
		}
		entry, ok := s.comments[parent].replies[subject.ID]
		if !ok {
			return nil, false
		}
		return &entry.like, true
	}
	return nil, false
}

// CommentCount returns the post's top-level comment count
func (s *Store) CommentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commentCount
}

// UpsertComment inserts an unseen comment or replaces the fields of a known one.
// A known comment keeps its like state; the comment count grows on insert only.
func (s *Store) UpsertComment(c comments.Comment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrStoreClosed
	}
	if entry, ok := s.comments[c.ID]; ok {
		entry.comment = c
		return false, nil
	}
	s.comments[c.ID] = &commentEntry{
		comment: c,
		like:    LikeState{Count: max(c.LikeCount, 0)},
		replies: make(map[string]*replyEntry),
	}
	s.order = append(s.order, c.ID)
	s.commentCount++
	return true, nil
}

// UpsertReply inserts or replaces a reply under its parent comment
func (s *Store) UpsertReply(r comments.Reply) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrStoreClosed
	}
	parent, ok := s.comments[r.ParentCommentID]
	if !ok {
		return false, ErrStaleReference
	}
	if entry, ok := parent.replies[r.ID]; ok {
		entry.reply = r
		return false, nil
	}
	parent.replies[r.ID] = &replyEntry{
		reply: r,
		like:  LikeState{Count: max(r.LikeCount, 0)},
	}
	parent.replyOrder = append(parent.replyOrder, r.ID)
	s.replyParent[r.ID] = r.ParentCommentID
	return true, nil
}

// RemoveComment drops a comment and its replies. Removing an unknown id is a no-op.
func (s *Store) RemoveComment(commentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	entry, ok := s.comments[commentID]
	if !ok {
		return false
	}
	for replyID := range entry.replies {
		delete(s.replyParent, replyID)
	}
	delete(s.comments, commentID)
	s.order = removeID(s.order, commentID)
	if s.commentCount > 0 {
		s.commentCount--
	}
	return true
}

// RemoveReply drops one reply. Removing an unknown id is a no-op.
func (s *Store) RemoveReply(replyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	parentID, ok := s.replyParent[replyID]
	if !ok {
		return false
	}
	parent := s.comments[parentID]
	delete(parent.replies, replyID)
	parent.replyOrder = removeID(parent.replyOrder, replyID)
	delete(s.replyParent, replyID)
	return true
}

// ReplaceThread swaps in a freshly fetched comment/reply set. Subjects that
// survive keep their like state; new ones start from the row's like count.
// Replies whose parent is not in cs are dropped.
func (s *Store) ReplaceThread(cs []comments.Comment, rs []comments.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	next := make(map[string]*commentEntry, len(cs))
	order := make([]string, 0, len(cs))
	replyParent := make(map[string]string, len(rs))

	for _, c := range cs {
		if _, dup := next[c.ID]; dup {
			continue
		}
		like := LikeState{Count: max(c.LikeCount, 0)}
		if old, ok := s.comments[c.ID]; ok {
			like = old.like
		}
		next[c.ID] = &commentEntry{
			comment: c,
			like:    like,
			replies: make(map[string]*replyEntry),
		}
		order = append(order, c.ID)
	}

	for _, r := range rs {
		parent, ok := next[r.ParentCommentID]
		if !ok {
			continue
		}
		if _, dup := parent.replies[r.ID]; dup {
			continue
		}
		like := LikeState{Count: max(r.LikeCount, 0)}
		if oldParent, ok := s.replyParent[r.ID]; ok {
			if old, ok := s.comments[oldParent].replies[r.ID]; ok {
				like = old.like
			}
		}
		parent.replies[r.ID] = &replyEntry{reply: r, like: like}
		parent.replyOrder = append(parent.replyOrder, r.ID)
		replyParent[r.ID] = r.ParentCommentID
	}

	s.comments = next
	s.order = order
	s.replyParent = replyParent
	s.commentCount = len(order)
	return nil
}

// ReplaceTree reseeds the store from an assembled comment tree
func (s *Store) ReplaceTree(tree *comments.Tree) error {
	cs, rs := Flatten(tree)
	return s.ReplaceThread(cs, rs)
}

// Flatten splits a tree back into its comment and reply rows
func Flatten(tree *comments.Tree) ([]comments.Comment, []comments.Reply) {
	nodes := tree.Nodes()
	cs := make([]comments.Comment, 0, len(nodes))
	rs := make([]comments.Reply, 0)
	for _, n := range nodes {
		cs = append(cs, n.Comment)
		for _, r := range n.Replies {
			rs = append(rs, r.Reply)
		}
	}
	return cs, rs
}

// Subjects lists every tracked subject: the post first, then comments and
// their replies in insertion order
func (s *Store) Subjects() []Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subject, 0, 1+len(s.order)+len(s.replyParent))
	out = append(out, PostSubject(s.postID))
	for _, id := range s.order {
		out = append(out, CommentSubject(id))
		for _, rid := range s.comments[id].replyOrder {
			out = append(out, ReplySubject(rid))
		}
	}
	return out
}

// ReplySnapshot is a point-in-time copy of a reply and its like state
type ReplySnapshot struct {
	Reply comments.Reply `json:"reply"`
	Like  LikeState      `json:"like"`
}

// CommentSnapshot is a point-in-time copy of a comment, its like state and its replies
type CommentSnapshot struct {
	Replies []ReplySnapshot  `json:"replies"`
	Comment comments.Comment `json:"comment"`
	Like    LikeState        `json:"like"`
}

// Snapshot is a point-in-time copy of the whole store
type Snapshot struct {
	PostID       string            `json:"postId"`
	Comments     []CommentSnapshot `json:"comments"`
	Post         LikeState         `json:"post"`
	CommentCount int               `json:"commentCount"`
}

// Snapshot copies the store's state in insertion order
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		PostID:       s.postID,
		Post:         s.post,
		CommentCount: s.commentCount,
		Comments:     make([]CommentSnapshot, 0, len(s.order)),
	}
	for _, id := range s.order {
		entry := s.comments[id]
		cs := CommentSnapshot{
			Comment: entry.comment,
			Like:    entry.like,
			Replies: make([]ReplySnapshot, 0, len(entry.replyOrder)),
		}
		for _, rid := range entry.replyOrder {
			r := entry.replies[rid]
			cs.Replies = append(cs.Replies, ReplySnapshot{Reply: r.reply, Like: r.like})
		}
		snap.Comments = append(snap.Comments, cs)
	}
	return snap
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

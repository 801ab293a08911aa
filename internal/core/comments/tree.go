package comments

import (
	"sort"
	"sync"

	"Quad/internal/core/identity"
)

// ReplyNode is a reply enriched with its author's display identity
type ReplyNode struct {
	Author identity.Snapshot `json:"author"`
	Reply  Reply             `json:"reply"`
}

// Node is a top-level comment with its ordered replies
type Node struct {
	Author  identity.Snapshot `json:"author"`
	Replies []*ReplyNode      `json:"replies"`
	Comment Comment           `json:"comment"`
}

// Tree is the renderable two-level comment tree of one post.
// Nodes are never modified in place; removals swap in copies, so a slice
// returned by Nodes stays valid while the tree changes underneath it.
type Tree struct {
	postID string
	nodes  []*Node
	mu     sync.RWMutex
}

func newTree(postID string, nodes []*Node) *Tree {
	if nodes == nil {
		nodes = make([]*Node, 0)
	}
	return &Tree{postID: postID, nodes: nodes}
}

// PostID returns the post this tree belongs to
func (t *Tree) PostID() string {
	return t.postID
}

// Nodes returns the comments in creation order
func (t *Tree) Nodes() []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Len returns the number of top-level comments
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.nodes)
}

// FindComment looks up a top-level comment by id
func (t *Tree) FindComment(commentID string) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, n := range t.nodes {
		if n.Comment.ID == commentID {
			return n, true
		}
	}
	return nil, false
}

// FindReply looks up a reply by id along with its parent comment
func (t *Tree) FindReply(replyID string) (*ReplyNode, *Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, n := range t.nodes {
		for _, r := range n.Replies {
			if r.Reply.ID == replyID {
				return r, n, true
			}
		}
	}
	return nil, nil, false
}

// AuthorIDs returns the distinct author ids across comments and replies
func (t *Tree) AuthorIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]bool)
	ids := make([]string, 0)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, n := range t.nodes {
		add(n.Comment.AuthorID)
		for _, r := range n.Replies {
			add(r.Reply.AuthorID)
		}
	}
	return ids
}

func (t *Tree) swap(nodes []*Node) []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.nodes
	t.nodes = nodes
	return prev
}

// stripComment removes a comment and its replies, returning the prior node list
func (t *Tree) stripComment(commentID string) ([]*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, n := range t.nodes {
		if n.Comment.ID != commentID {
			continue
		}
		prev := t.nodes
		next := make([]*Node, 0, len(prev)-1)
		next = append(next, prev[:i]...)
		next = append(next, prev[i+1:]...)
		t.nodes = next
		return prev, true
	}
	return nil, false
}

// stripReply removes one reply, replacing its parent node with a copy
func (t *Tree) stripReply(replyID string) ([]*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, n := range t.nodes {
		for j, r := range n.Replies {
			if r.Reply.ID != replyID {
				continue
			}
			replies := make([]*ReplyNode, 0, len(n.Replies)-1)
			replies = append(replies, n.Replies[:j]...)
			replies = append(replies, n.Replies[j+1:]...)

			parent := *n
			parent.Replies = replies

			prev := t.nodes
			next := make([]*Node, len(prev))
			copy(next, prev)
			next[i] = &parent
			t.nodes = next
			return prev, true
		}
	}
	return nil, false
}

// insertComment adds a comment node in creation order. A node with the same
// id is replaced.
func (t *Tree) insertComment(node *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := make([]*Node, 0, len(t.nodes)+1)
	for _, n := range t.nodes {
		if n.Comment.ID != node.Comment.ID {
			next = append(next, n)
		}
	}
	next = append(next, node)
	sort.SliceStable(next, func(i, j int) bool {
		a, b := next[i].Comment, next[j].Comment
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	t.nodes = next
}

// insertReply adds a reply node under its parent, replacing the parent with a
// copy. It reports false when the parent is not in the tree.
func (t *Tree) insertReply(node *ReplyNode) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, n := range t.nodes {
		if n.Comment.ID != node.Reply.ParentCommentID {
			continue
		}
		replies := make([]*ReplyNode, 0, len(n.Replies)+1)
		for _, r := range n.Replies {
			if r.Reply.ID != node.Reply.ID {
				replies = append(replies, r)
			}
		}
		replies = append(replies, node)
		sort.SliceStable(replies, func(i, j int) bool {
			a, b := replies[i].Reply, replies[j].Reply
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			return a.CreatedAt.Before(b.CreatedAt)
		})

		parent := *n
		parent.Replies = replies

		next := make([]*Node, len(t.nodes))
		copy(next, t.nodes)
		next[i] = &parent
		t.nodes = next
		return true
	}
	return false
}

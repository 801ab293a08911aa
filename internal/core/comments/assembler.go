package comments

import (
	"context"
	"fmt"
	"log/slog"

	"Quad/internal/core/identity"
)

// Assembler builds two-level comment trees from the flat comment and reply
// collections and enriches every node with its author's display identity.
// Identity lookups are bounded by the number of distinct authors, not comments.
type Assembler struct {
	repo       Repository
	identities *identity.Resolver
	logger     *slog.Logger
}

// NewAssembler creates an assembler. The identity resolver carries the
// session cache shared by every assembly in the session.
func NewAssembler(repo Repository, identities *identity.Resolver, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if identities == nil {
		identities = identity.NewResolver(identity.NewCache(), nil, logger)
	}
	return &Assembler{
		repo:       repo,
		identities: identities,
		logger:     logger,
	}
}

// Assemble fetches and builds the comment tree for a post.
// Algorithm:
// 1. Fetch all comments for the post, oldest first
// 2. Fetch replies for every comment in one batch
// 3. Resolve the distinct authors through the session identity cache
// 4. Group replies under their parent comment, oldest first
func (a *Assembler) Assemble(ctx context.Context, postID string) (*Tree, error) {
	nodes, err := a.build(ctx, postID)
	if err != nil {
		return nil, err
	}
	return newTree(postID, nodes), nil
}

// Refresh re-fetches the whole comment/reply set and replaces the tree contents
func (a *Assembler) Refresh(ctx context.Context, tree *Tree) error {
	nodes, err := a.build(ctx, tree.PostID())
	if err != nil {
		return err
	}
	tree.swap(nodes)
	return nil
}

func (a *Assembler) build(ctx context.Context, postID string) ([]*Node, error) {
	list, err := a.repo.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	SortComments(list)

	var replies []Reply
	if len(list) > 0 {
		commentIDs := make([]string, 0, len(list))
		for _, c := range list {
			commentIDs = append(commentIDs, c.ID)
		}
		replies, err = a.repo.ListReplies(ctx, commentIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to list replies: %w", err)
		}
	}

	// Collect unique author ids to keep the lookup to one batch
	authorIDs := make([]string, 0, len(list)+len(replies))
	seen := make(map[string]bool)
	for _, c := range list {
		if !seen[c.AuthorID] {
			seen[c.AuthorID] = true
			authorIDs = append(authorIDs, c.AuthorID)
		}
	}
	for _, r := range replies {
		if !seen[r.AuthorID] {
			seen[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}
	authors := a.identities.Resolve(ctx, authorIDs)

	byParent := make(map[string][]Reply, len(list))
	for _, r := range replies {
		byParent[r.ParentCommentID] = append(byParent[r.ParentCommentID], r)
	}

	nodes := make([]*Node, 0, len(list))
	for _, c := range list {
		children := byParent[c.ID]
		delete(byParent, c.ID)
		SortReplies(children)

		replyNodes := make([]*ReplyNode, 0, len(children))
		for _, r := range children {
			replyNodes = append(replyNodes, &ReplyNode{
				Reply:  r,
				Author: snapshotFor(authors, r.AuthorID),
			})
		}

		nodes = append(nodes, &Node{
			Comment: c,
			Author:  snapshotFor(authors, c.AuthorID),
			Replies: replyNodes,
		})
	}

	// Replies whose parent is not in this fetch belong to a comment deleted in between
	for parentID, orphans := range byParent {
		a.logger.Debug("dropping replies to unknown comment",
			"post", postID,
			"comment", parentID,
			"count", len(orphans))
	}

	return nodes, nil
}

func snapshotFor(authors map[string]identity.Snapshot, userID string) identity.Snapshot {
	if s, ok := authors[userID]; ok {
		return s
	}
	return identity.Fallback(userID)
}

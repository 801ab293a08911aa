package engagement

import (
	"context"
	"fmt"
	"log/slog"

	"Quad/internal/core/comments"
)

// ViewDeps are the collaborators shared by every open post view
type ViewDeps struct {
	Likes     LikeRepository
	Assembler *comments.Assembler
	Logger    *slog.Logger
	Policy    TogglePolicy
}

// PostView is one open post detail view: its comment tree, the engagement
// store mirroring it, and the mutator acting for the viewer. Like state
// and the comment tree are updated independently.
type PostView struct {
	store      *Store
	tree       *comments.Tree
	assembler  *comments.Assembler
	reconciler *Reconciler
	mutator    *Mutator
	logger     *slog.Logger
	viewerID   string
}

// OpenPostView assembles the post's comment tree and reconciles the like
// state of the post and every comment and reply in it. Reconcile failures
// are logged and leave the row-level counts in place; a tree failure fails
// the open.
func OpenPostView(ctx context.Context, deps ViewDeps, postID, viewerID string) (*PostView, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if postID == "" {
		return nil, fmt.Errorf("%w: empty post id", ErrInvalidSubject)
	}

	tree, err := deps.Assembler.Assemble(ctx, postID)
	if err != nil {
		return nil, err
	}

	store := NewStore(postID)
	if err := store.ReplaceTree(tree); err != nil {
		return nil, err
	}

	reconciler := NewReconciler(deps.Likes, logger)
	v := &PostView{
		store:      store,
		tree:       tree,
		assembler:  deps.Assembler,
		reconciler: reconciler,
		mutator:    NewMutator(store, deps.Likes, reconciler, viewerID, deps.Policy, logger),
		viewerID:   viewerID,
		logger:     logger,
	}

	if err := reconciler.ReconcileAll(ctx, store, viewerID); err != nil {
		logger.Warn("post view opened with unreconciled like state",
			"post", postID,
			"error", err)
	}
	return v, nil
}

func (v *PostView) PostID() string       { return v.store.PostID() }
func (v *PostView) ViewerID() string     { return v.viewerID }
func (v *PostView) Store() *Store        { return v.store }
func (v *PostView) Tree() *comments.Tree { return v.tree }
func (v *PostView) Mutator() *Mutator    { return v.mutator }

// Close discards the view. Writes already issued still complete but no
// longer touch local state.
func (v *PostView) Close() {
	v.store.Close()
}

// ToggleLike toggles the viewer's like on the post or one of its comments or replies
func (v *PostView) ToggleLike(ctx context.Context, subject Subject, currentlyLiked bool) (*ToggleResult, error) {
	return v.mutator.ToggleLike(ctx, subject, currentlyLiked)
}

// Reconcile re-reads one subject's like state into the store
func (v *PostView) Reconcile(ctx context.Context, subject Subject) (LikeState, error) {
	return v.reconciler.ReconcileInto(ctx, v.store, subject, v.viewerID)
}

// Refresh re-fetches the comment tree and reconciles everything in it
func (v *PostView) Refresh(ctx context.Context) error {
	if err := v.assembler.Refresh(ctx, v.tree); err != nil {
		return err
	}
	if err := v.store.ReplaceTree(v.tree); err != nil {
		return err
	}
	return v.reconciler.ReconcileAll(ctx, v.store, v.viewerID)
}

// AddComment posts a top-level comment as the viewer
func (v *PostView) AddComment(ctx context.Context, body string) (*comments.Comment, error) {
	if v.viewerID == "" {
		return nil, ErrNotAuthenticated
	}
	c, err := v.assembler.CreateComment(ctx, v.tree, v.viewerID, body)
	if err != nil {
		return nil, err
	}
	// The tree holds the new row even when its refresh failed
	v.resync(ctx)
	return c, nil
}

// AddReply posts a reply to one of the post's comments as the viewer
func (v *PostView) AddReply(ctx context.Context, commentID, body string) (*comments.Reply, error) {
	if v.viewerID == "" {
		return nil, ErrNotAuthenticated
	}
	r, err := v.assembler.CreateReply(ctx, v.tree, commentID, v.viewerID, body)
	if err != nil {
		return nil, err
	}
	// The tree holds the new row even when its refresh failed
	v.resync(ctx)
	return r, nil
}

// DeleteComment removes one of the viewer's comments from both the store and
// the tree before the write resolves. On failure the store is reseeded from
// whatever the tree recovered to.
func (v *PostView) DeleteComment(ctx context.Context, commentID string) error {
	if v.viewerID == "" {
		return ErrNotAuthenticated
	}
	node, ok := v.tree.FindComment(commentID)
	if !ok {
		return comments.ErrCommentNotFound
	}
	if node.Comment.AuthorID != v.viewerID {
		return comments.ErrNotAuthorized
	}

	v.store.RemoveComment(commentID)
	if err := v.assembler.DeleteComment(ctx, v.tree, commentID, v.viewerID); err != nil {
		v.resync(ctx)
		return err
	}
	return nil
}

// DeleteReply removes one of the viewer's replies; the parent comment is untouched
func (v *PostView) DeleteReply(ctx context.Context, replyID string) error {
	if v.viewerID == "" {
		return ErrNotAuthenticated
	}
	node, _, ok := v.tree.FindReply(replyID)
	if !ok {
		return comments.ErrReplyNotFound
	}
	if node.Reply.AuthorID != v.viewerID {
		return comments.ErrNotAuthorized
	}

	v.store.RemoveReply(replyID)
	if err := v.assembler.DeleteReply(ctx, v.tree, replyID, v.viewerID); err != nil {
		v.resync(ctx)
		return err
	}
	return nil
}

// resync reseeds the store from the tree and reconciles subjects it has not seen
func (v *PostView) resync(ctx context.Context) {
	before := make(map[Subject]bool)
	for _, s := range v.store.Subjects() {
		before[s] = true
	}

	if err := v.store.ReplaceTree(v.tree); err != nil {
		return
	}

	for _, s := range v.store.Subjects() {
		if before[s] {
			continue
		}
		if _, err := v.reconciler.ReconcileInto(ctx, v.store, s, v.viewerID); err != nil {
			v.logger.Warn("failed to reconcile new subject",
				"error", err,
				"subject", s.String())
		}
	}
}

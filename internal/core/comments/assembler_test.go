package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Quad/internal/core/identity"
)

var base = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// memRepo is an in-memory Repository with failure injection
type memRepo struct {
	listErr   error
	deleteErr error
	insertErr error
	comments  map[string]Comment
	replies   map[string]Reply
	listCalls int
	nextID    int
	mu        sync.Mutex

	// allReplies returns every reply regardless of the requested parents
	allReplies bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		comments: make(map[string]Comment),
		replies:  make(map[string]Reply),
	}
}

func (m *memRepo) addComment(id, author string, offset time.Duration) {
	m.comments[id] = Comment{ID: id, PostID: "p1", AuthorID: author, Body: "c " + id, CreatedAt: base.Add(offset)}
}

func (m *memRepo) addReply(id, parent, author string, offset time.Duration) {
	m.replies[id] = Reply{ID: id, ParentCommentID: parent, AuthorID: author, Body: "r " + id, CreatedAt: base.Add(offset)}
}

func (m *memRepo) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Comment, 0)
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) ListReplies(ctx context.Context, commentIDs []string) ([]Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool)
	for _, id := range commentIDs {
		wanted[id] = true
	}
	out := make([]Reply, 0)
	for _, r := range m.replies {
		if m.allReplies || wanted[r.ParentCommentID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) InsertComment(ctx context.Context, postID, userID, body string) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.nextID++
	c := Comment{ID: fmt.Sprintf("new-%d", m.nextID), PostID: postID, AuthorID: userID, Body: body, CreatedAt: base.Add(time.Hour)}
	m.comments[c.ID] = c
	return &c, nil
}

func (m *memRepo) InsertReply(ctx context.Context, commentID, userID, body string) (*Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return nil, m.insertErr
	}
	if _, ok := m.comments[commentID]; !ok {
		return nil, ErrCommentNotFound
	}
	m.nextID++
	r := Reply{ID: fmt.Sprintf("new-r%d", m.nextID), ParentCommentID: commentID, AuthorID: userID, Body: body, CreatedAt: base.Add(time.Hour)}
	m.replies[r.ID] = r
	return &r, nil
}

func (m *memRepo) DeleteComment(ctx context.Context, commentID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	c, ok := m.comments[commentID]
	if !ok || c.AuthorID != userID {
		return ErrCommentNotFound
	}
	delete(m.comments, commentID)
	for id, r := range m.replies {
		if r.ParentCommentID == commentID {
			delete(m.replies, id)
		}
	}
	return nil
}

func (m *memRepo) DeleteReply(ctx context.Context, replyID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	r, ok := m.replies[replyID]
	if !ok || r.AuthorID != userID {
		return ErrReplyNotFound
	}
	delete(m.replies, replyID)
	return nil
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchIdentities(ctx context.Context, userIDs []string) (map[string]identity.Snapshot, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]identity.Snapshot), args.Error(1)
}

type staticFetcher map[string]identity.Snapshot

func (s staticFetcher) FetchIdentities(ctx context.Context, userIDs []string) (map[string]identity.Snapshot, error) {
	out := make(map[string]identity.Snapshot)
	for _, id := range userIDs {
		if snap, ok := s[id]; ok {
			out[id] = snap
		}
	}
	return out, nil
}

func seededRepo() *memRepo {
	repo := newMemRepo()
	repo.addComment("c2", "bob", 2*time.Minute)
	repo.addComment("c1", "ana", time.Minute)
	repo.addReply("r2", "c1", "ana", 4*time.Minute)
	repo.addReply("r1", "c1", "carl", 3*time.Minute)
	repo.addReply("r3", "c2", "bob", 5*time.Minute)
	return repo
}

func newTestAssembler(repo Repository) *Assembler {
	fetcher := staticFetcher{
		"ana":  {UserID: "ana", DisplayName: "Ana"},
		"bob":  {UserID: "bob", DisplayName: "Bob"},
		"carl": {UserID: "carl", DisplayName: "Carl"},
	}
	return NewAssembler(repo, identity.NewResolver(identity.NewCache(), fetcher, nil), nil)
}

func TestAssembler_BuildsOrderedTwoLevelTree(t *testing.T) {
	a := newTestAssembler(seededRepo())

	tree, err := a.Assemble(context.Background(), "p1")
	require.NoError(t, err)

	nodes := tree.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "c1", nodes[0].Comment.ID)
	assert.Equal(t, "c2", nodes[1].Comment.ID)

	require.Len(t, nodes[0].Replies, 2)
	assert.Equal(t, "r1", nodes[0].Replies[0].Reply.ID)
	assert.Equal(t, "r2", nodes[0].Replies[1].Reply.ID)
	assert.Equal(t, "Carl", nodes[0].Replies[0].Author.DisplayName)
	assert.Equal(t, "Ana", nodes[0].Author.DisplayName)

	require.Len(t, nodes[1].Replies, 1)
	assert.Equal(t, "Bob", nodes[1].Author.DisplayName)
}

func TestAssembler_OneIdentityBatchPerDistinctAuthors(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchIdentities", mock.Anything, mock.MatchedBy(func(ids []string) bool {
		return assert.ObjectsAreEqual(map[string]bool{"ana": true, "bob": true, "carl": true}, toSet(ids)) && len(ids) == 3
	})).Return(map[string]identity.Snapshot{
		"ana": {UserID: "ana", DisplayName: "Ana"},
		"bob": {UserID: "bob", DisplayName: "Bob"},
	}, nil).Once()

	cache := identity.NewCache()
	a := NewAssembler(seededRepo(), identity.NewResolver(cache, fetcher, nil), nil)

	tree, err := a.Assemble(context.Background(), "p1")
	require.NoError(t, err)
	fetcher.AssertExpectations(t)

	// carl was not returned by the backend: raw id shown instead
	r1, _, ok := tree.FindReply("r1")
	require.True(t, ok)
	assert.Equal(t, "carl", r1.Author.DisplayName)
	assert.True(t, r1.Author.Degraded)

	// Second assembly only asks for the id that is still unresolved
	fetcher.On("FetchIdentities", mock.Anything, []string{"carl"}).
		Return(map[string]identity.Snapshot{"carl": {UserID: "carl", DisplayName: "Carl"}}, nil).Once()
	_, err = a.Assemble(context.Background(), "p1")
	require.NoError(t, err)
	fetcher.AssertExpectations(t)
	assert.Equal(t, 3, cache.Len())
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool)
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func TestAssembler_IdentityFailureDoesNotBlock(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchIdentities", mock.Anything, mock.Anything).Return(nil, errors.New("identity service down"))

	a := NewAssembler(seededRepo(), identity.NewResolver(identity.NewCache(), fetcher, nil), nil)

	tree, err := a.Assemble(context.Background(), "p1")
	require.NoError(t, err)
	for _, n := range tree.Nodes() {
		assert.Equal(t, n.Comment.AuthorID, n.Author.DisplayName)
	}
}

func TestAssembler_EmptyPost(t *testing.T) {
	a := newTestAssembler(newMemRepo())

	tree, err := a.Assemble(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, tree.Nodes())
	assert.Equal(t, 0, tree.Len())
}

func TestAssembler_ListFailure(t *testing.T) {
	repo := newMemRepo()
	repo.listErr = errors.New("boom")
	a := newTestAssembler(repo)

	_, err := a.Assemble(context.Background(), "p1")
	assert.Error(t, err)
}

func TestAssembler_OrphanRepliesDropped(t *testing.T) {
	repo := seededRepo()
	repo.addReply("r9", "gone", "ana", time.Minute)
	repo.allReplies = true
	a := newTestAssembler(repo)

	tree, err := a.Assemble(context.Background(), "p1")
	require.NoError(t, err)
	_, _, ok := tree.FindReply("r9")
	assert.False(t, ok)
}

func TestValidateBody(t *testing.T) {
	body, err := ValidateBody("  hola  ")
	require.NoError(t, err)
	assert.Equal(t, "hola", body)

	_, err = ValidateBody("   ")
	assert.ErrorIs(t, err, ErrContentEmpty)

	_, err = ValidateBody(strings.Repeat("a", MaxBodyGraphemes+1))
	assert.ErrorIs(t, err, ErrContentTooLong)

	// Multi-codepoint emoji count as one grapheme each
	_, err = ValidateBody(strings.Repeat("👍🏽", MaxBodyGraphemes))
	assert.NoError(t, err)
	assert.True(t, IsValidationError(ErrContentTooLong))
}

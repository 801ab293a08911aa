package engagement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultWriteTimeout bounds a single like insert/delete
const DefaultWriteTimeout = 15 * time.Second

// TogglePolicy decides what happens when a toggle arrives for a subject
// whose previous toggle has not resolved yet
type TogglePolicy int

const (
	// PolicyQueue waits for the in-flight toggle, then toggles from the settled state
	PolicyQueue TogglePolicy = iota
	// PolicyReject refuses the second toggle with ErrToggleInFlight
	PolicyReject
)

// ParseTogglePolicy reads a policy name from configuration
func ParseTogglePolicy(s string) (TogglePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "queue":
		return PolicyQueue, nil
	case "reject":
		return PolicyReject, nil
	}
	return PolicyQueue, fmt.Errorf("unknown toggle policy %q", s)
}

func (p TogglePolicy) String() string {
	if p == PolicyReject {
		return "reject"
	}
	return "queue"
}

// ToggleResult reports what a toggle did to local state
type ToggleResult struct {
	// Optimistic is the state shown before the write resolved
	Optimistic LikeState `json:"optimistic"`
	// Final is the state after the write resolved and reconciliation ran
	Final LikeState `json:"final"`
	// Committed is true when the backend accepted the write
	Committed bool `json:"committed"`
	// Reconciled is true when Final came from the likes relation
	Reconciled bool `json:"reconciled"`
}

// Mutator applies like toggles optimistically: local state moves first, the
// write follows, failures restore the exact pre-toggle snapshot, and every
// resolution ends with a reconcile against the likes relation.
//
// Toggles for the same subject never overlap.
type Mutator struct {
	store        *Store
	writer       LikeWriter
	reconciler   *Reconciler
	logger       *slog.Logger
	inflight     map[Subject]chan struct{}
	viewerID     string
	writeTimeout time.Duration
	policy       TogglePolicy
	mu           sync.Mutex
}

// NewMutator creates a mutator acting on behalf of viewerID
func NewMutator(store *Store, writer LikeWriter, reconciler *Reconciler, viewerID string, policy TogglePolicy, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{
		store:        store,
		writer:       writer,
		reconciler:   reconciler,
		viewerID:     viewerID,
		policy:       policy,
		writeTimeout: DefaultWriteTimeout,
		inflight:     make(map[Subject]chan struct{}),
		logger:       logger,
	}
}

// SetWriteTimeout overrides DefaultWriteTimeout
func (m *Mutator) SetWriteTimeout(d time.Duration) {
	if d > 0 {
		m.writeTimeout = d
	}
}

// ToggleLike flips the viewer's like on subject. currentlyLiked is the state
// the caller rendered; when the toggle had to wait behind another one the
// settled store state is used instead.
//
// A backend failure returns ErrTransientWrite after local state has been
// restored; a subject that vanished upstream returns its ErrStaleReference
// instead. Cancelling ctx abandons waiting in the queue but never aborts a
// write that already started.
func (m *Mutator) ToggleLike(ctx context.Context, subject Subject, currentlyLiked bool) (*ToggleResult, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	if m.viewerID == "" {
		return nil, ErrNotAuthenticated
	}

	waited, release, err := m.acquire(ctx, subject)
	if err != nil {
		return nil, err
	}
	defer release()

	prior, ok := m.store.LikeState(subject)
	if !ok {
		return nil, ErrStaleReference
	}

	liked := currentlyLiked
	if waited {
		liked = prior.Liked
	}

	delta := 1
	if liked {
		delta = -1
	}
	optimistic, err := m.store.ApplyDelta(subject, !liked, delta)
	if err != nil {
		return nil, err
	}

	result := &ToggleResult{Optimistic: optimistic, Final: optimistic}

	writeErr := m.write(ctx, subject, liked)
	if writeErr != nil {
		m.logger.Error("like write failed, rolling back",
			"error", writeErr,
			"subject", subject.String(),
			"user", m.viewerID,
			"liked", !liked)

		// Restore the captured snapshot, not an inverse delta
		if m.store.Live() {
			if err := m.store.SetLikeState(subject, prior); err != nil && !IsStale(err) {
				m.logger.Warn("failed to restore like state",
					"error", err,
					"subject", subject.String())
			}
		}
		result.Final = prior
	} else {
		result.Committed = true
	}

	// Reconcile on both paths; the write may have landed before a failure surfaced
	reconcileCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.writeTimeout)
	defer cancel()
	state, err := m.reconciler.ReconcileInto(reconcileCtx, m.store, subject, m.viewerID)
	if err != nil {
		m.logger.Warn("reconcile after toggle failed",
			"error", err,
			"subject", subject.String())
	} else {
		result.Final = state
		result.Reconciled = true
	}

	if writeErr != nil {
		// A subject deleted upstream is a no-op, not a failed write
		if IsStale(writeErr) {
			return result, writeErr
		}
		return result, fmt.Errorf("%w: %v", ErrTransientWrite, writeErr)
	}

	m.logger.Debug("like toggled",
		"subject", subject.String(),
		"user", m.viewerID,
		"liked", !liked,
		"count", result.Final.Count)
	return result, nil
}

func (m *Mutator) write(ctx context.Context, subject Subject, currentlyLiked bool) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.writeTimeout)
	defer cancel()

	if currentlyLiked {
		return m.writer.DeleteLike(writeCtx, subject, m.viewerID)
	}
	return m.writer.InsertLike(writeCtx, subject, m.viewerID)
}

// acquire claims the subject's toggle slot. waited reports whether another
// toggle held the slot first.
func (m *Mutator) acquire(ctx context.Context, subject Subject) (bool, func(), error) {
	waited := false
	for {
		m.mu.Lock()
		busy, held := m.inflight[subject]
		if !held {
			done := make(chan struct{})
			m.inflight[subject] = done
			m.mu.Unlock()
			return waited, func() {
				m.mu.Lock()
				delete(m.inflight, subject)
				m.mu.Unlock()
				close(done)
			}, nil
		}
		m.mu.Unlock()

		if m.policy == PolicyReject {
			return false, nil, ErrToggleInFlight
		}

		waited = true
		select {
		case <-busy:
		case <-ctx.Done():
			return false, nil, ctx.Err()
		}
	}
}

// InFlight reports whether a toggle for subject is unresolved
func (m *Mutator) InFlight(subject Subject) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.inflight[subject]
	return held
}

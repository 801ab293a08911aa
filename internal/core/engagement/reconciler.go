package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// reconcileParallelism bounds concurrent count queries when a view opens
const reconcileParallelism = 8

// Reconciler re-derives like state from the likes relation. Counts are never
// computed by accumulating local deltas; every reconcile reads the aggregate.
type Reconciler struct {
	querier LikeQuerier
	logger  *slog.Logger
}

// NewReconciler creates a reconciler over a like querier
func NewReconciler(querier LikeQuerier, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{querier: querier, logger: logger}
}

// Reconcile reads the true count of a subject and whether the viewer has a
// like row for it. An empty viewerID is treated as signed out: Liked is false.
func (r *Reconciler) Reconcile(ctx context.Context, subject Subject, viewerID string) (LikeState, error) {
	if err := subject.Validate(); err != nil {
		return LikeState{}, err
	}

	count, err := r.querier.CountLikes(ctx, subject)
	if err != nil {
		return LikeState{}, fmt.Errorf("count likes for %s: %w", subject, err)
	}

	liked := false
	if viewerID != "" {
		liked, err = r.querier.LikeExists(ctx, subject, viewerID)
		if err != nil {
			return LikeState{}, fmt.Errorf("check like for %s: %w", subject, err)
		}
	}

	return LikeState{Liked: liked, Count: max(count, 0)}, nil
}

// ReconcileInto reconciles a subject and overwrites its state in the store.
// A query failure leaves the store untouched. A subject that vanished or a
// store that was closed while the query ran is silently skipped.
func (r *Reconciler) ReconcileInto(ctx context.Context, store *Store, subject Subject, viewerID string) (LikeState, error) {
	state, err := r.Reconcile(ctx, subject, viewerID)
	if err != nil {
		return LikeState{}, err
	}

	if err := store.SetLikeState(subject, state); err != nil {
		if IsStale(err) {
			r.logger.Debug("reconciled subject no longer tracked",
				"subject", subject.String(),
				"reason", err)
			return state, nil
		}
		return LikeState{}, err
	}
	return state, nil
}

// ReconcileAll reconciles every subject the store tracks. Failures are
// collected; one subject failing does not stop the others.
func (r *Reconciler) ReconcileAll(ctx context.Context, store *Store, viewerID string) error {
	subjects := store.Subjects()

	var (
		mu   sync.Mutex
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(reconcileParallelism)
	for _, subject := range subjects {
		g.Go(func() error {
			if _, err := r.ReconcileInto(ctx, store, subject, viewerID); err != nil {
				r.logger.Warn("failed to reconcile like state",
					"error", err,
					"post", store.PostID(),
					"subject", subject.String())
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Package sync implements the offline-first reconciliation between the
// device-local store and the remote store: push local changes, pull remote
// ones, resolve conflicts last-write-wins on the update timestamp.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mwestre/cadence/internal/repository"
	"github.com/mwestre/cadence/internal/syncmeta"
)

// Entity is the access trait every syncable record exposes. One Reconciler
// implementation serves all collections through it.
type Entity interface {
	EntityID() string
	SyncMeta() *syncmeta.Meta
}

// LocalStore is the device-local side of one collection.
type LocalStore[T Entity] interface {
	Get(ctx context.Context, uid, id string) (T, error)
	Upsert(ctx context.Context, uid string, e T) error
	FindPendingSync(ctx context.Context, uid string) ([]T, error)
	MarkSynced(ctx context.Context, uid, id string, at time.Time) error
}

// RemoteStore is the remote side of one collection. Push has merge
// semantics: a stale push never regresses a newer remote row.
type RemoteStore[T Entity] interface {
	FetchAll(ctx context.Context, uid string) ([]T, error)
	Push(ctx context.Context, uid string, e T) error
	Delete(ctx context.Context, uid, id string) error
}

// Reconciler synchronizes one collection for one entity type.
type Reconciler[T Entity] struct {
	name   string
	local  LocalStore[T]
	remote RemoteStore[T]
	group  *singleflight.Group
	logger *slog.Logger
	now    func() time.Time
}

// NewReconciler creates a reconciler for one collection. The singleflight
// group may be shared across collections; keys are prefixed with name.
func NewReconciler[T Entity](name string, local LocalStore[T], remote RemoteStore[T], group *singleflight.Group, logger *slog.Logger) *Reconciler[T] {
	if group == nil {
		group = &singleflight.Group{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler[T]{
		name:   name,
		local:  local,
		remote: remote,
		group:  group,
		logger: logger,
		now:    time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (r *Reconciler[T]) SetNowFunc(now func() time.Time) { r.now = now }

// Name returns the collection name.
func (r *Reconciler[T]) Name() string { return r.name }

// SyncNow runs one full push-then-pull pass for the user. Overlapping calls
// for the same (collection, user) collapse into a single in-flight pass.
func (r *Reconciler[T]) SyncNow(ctx context.Context, uid string) error {
	_, err, _ := r.group.Do(r.name+"/"+uid, func() (any, error) {
		return nil, r.syncOnce(ctx, uid)
	})
	return err
}

func (r *Reconciler[T]) syncOnce(ctx context.Context, uid string) error {
	if err := r.push(ctx, uid); err != nil {
		return fmt.Errorf("%s push: %w", r.name, err)
	}
	if err := r.pull(ctx, uid); err != nil {
		return fmt.Errorf("%s pull: %w", r.name, err)
	}
	return nil
}

// push uploads every pending local row. Each row's pending flag is cleared
// immediately after its own successful push, so a mid-batch failure loses no
// completed work and a retry re-pushes only what is still flagged.
func (r *Reconciler[T]) push(ctx context.Context, uid string) error {
	pending, err := r.local.FindPendingSync(ctx, uid)
	if err != nil {
		return fmt.Errorf("listing pending rows: %w", err)
	}
	for _, e := range pending {
		if err := r.remote.Push(ctx, uid, e); err != nil {
			return fmt.Errorf("pushing %s: %w", e.EntityID(), err)
		}
		if err := r.local.MarkSynced(ctx, uid, e.EntityID(), r.now()); err != nil {
			return fmt.Errorf("clearing pending flag on %s: %w", e.EntityID(), err)
		}
	}
	if len(pending) > 0 {
		r.logger.Debug("pushed pending rows", "collection", r.name, "count", len(pending))
	}
	return nil
}

// pull merges the remote collection into the local store. The row with the
// greater updatedAt wins wholesale; ties keep the local row so a not-yet-
// pushed edit is never regressed by a stale pull.
func (r *Reconciler[T]) pull(ctx context.Context, uid string) error {
	remote, err := r.remote.FetchAll(ctx, uid)
	if err != nil {
		return fmt.Errorf("fetching remote rows: %w", err)
	}

	applied := 0
	for _, rem := range remote {
		local, err := r.local.Get(ctx, uid, rem.EntityID())
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// New on remote.
		case err != nil:
			return fmt.Errorf("loading local %s: %w", rem.EntityID(), err)
		default:
			if !rem.SyncMeta().Newer(local.SyncMeta()) {
				continue
			}
		}

		meta := rem.SyncMeta()
		meta.PendingSync = false
		if meta.SyncedAt == nil {
			t := r.now()
			meta.SyncedAt = &t
		}
		if err := r.local.Upsert(ctx, uid, rem); err != nil {
			return fmt.Errorf("applying remote %s: %w", rem.EntityID(), err)
		}
		applied++
	}
	if applied > 0 {
		r.logger.Debug("applied remote rows", "collection", r.name, "count", applied)
	}
	return nil
}

package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
)

// ErrUnknownCollection indicates a sync request for an unregistered
// collection name.
var ErrUnknownCollection = errors.New("unknown sync collection")

// Func runs one sync pass for a user.
type Func func(ctx context.Context, uid string) error

// Registry maps collection names to their reconcilers so callers (HTTP
// handlers, background jobs) can trigger syncs uniformly.
type Registry struct {
	mu      stdsync.RWMutex
	entries map[string]Func
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Func)}
}

// Register adds a collection. Registration order is preserved by RunAll.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		r.order = append(r.order, name)
	}
	r.entries[name] = fn
}

// Run syncs a single collection.
func (r *Registry) Run(ctx context.Context, name, uid string) error {
	r.mu.RLock()
	fn, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return fn(ctx, uid)
}

// RunAll syncs every collection in registration order. Collections after a
// failing one still run; all failures are joined into the returned error.
func (r *Registry) RunAll(ctx context.Context, uid string) error {
	r.mu.RLock()
	names := append([]string(nil), r.order...)
	r.mu.RUnlock()

	var errs []error
	for _, name := range names {
		if err := r.Run(ctx, name, uid); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Names returns the registered collection names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Package jobs runs the recurring background work: activity generation,
// status refresh, sync passes, notification replans. Each named task keeps
// at most one instance in flight; an overdue tick is skipped, never queued,
// so a device that was offline for days doesn't replay a pile of passes.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	defaultTimeout = 5 * time.Minute
	backoffBase    = time.Minute
	backoffCap     = time.Hour
)

// ErrUnknownTask indicates a RunNow for a task name never registered.
var ErrUnknownTask = errors.New("unknown task")

// Runner schedules named recurring tasks.
type Runner struct {
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	tasks map[string]*task
}

type task struct {
	name string
	fn   func(context.Context) error

	running atomic.Bool

	mu           sync.Mutex
	failures     int
	backoffUntil time.Time
}

// NewRunner creates a stopped runner; call Start after registering tasks.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cron:   cron.New(),
		logger: logger,
		now:    time.Now,
		tasks:  make(map[string]*task),
	}
}

// Add registers a task firing every interval.
func (r *Runner) Add(name string, interval time.Duration, fn func(context.Context) error) error {
	t := &task{name: name, fn: fn}

	r.mu.Lock()
	r.tasks[name] = t
	r.mu.Unlock()

	_, err := r.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		r.run(t)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", name, err)
	}
	return nil
}

// RunNow executes a task immediately, outside its schedule. It still honors
// the single-inflight rule but ignores backoff (the user asked).
func (r *Runner) RunNow(name string) error {
	r.mu.Lock()
	t, ok := r.tasks[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return r.execute(t)
}

// Start begins periodic execution.
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info("job runner started")
}

// Stop halts scheduling and waits for in-flight tasks started by cron.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("job runner stopped")
}

func (r *Runner) run(t *task) {
	t.mu.Lock()
	wait := t.backoffUntil
	t.mu.Unlock()
	if r.now().Before(wait) {
		r.logger.Debug("task backing off", "task", t.name, "until", wait)
		return
	}
	if err := r.execute(t); err != nil {
		// Already logged; the next cycle retries after backoff.
		return
	}
}

func (r *Runner) execute(t *task) error {
	if !t.running.CompareAndSwap(false, true) {
		r.logger.Debug("task already in flight, skipping", "task", t.name)
		return nil
	}
	defer t.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	start := r.now()
	err := t.fn(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.failures++
		delay := backoffBase << min(t.failures-1, 10)
		if delay > backoffCap {
			delay = backoffCap
		}
		t.backoffUntil = r.now().Add(delay)
		r.logger.Warn("task failed", "task", t.name, "failures", t.failures,
			"retry_after", delay, "error", err)
		return err
	}
	t.failures = 0
	t.backoffUntil = time.Time{}
	r.logger.Debug("task completed", "task", t.name, "elapsed", r.now().Sub(start))
	return nil
}

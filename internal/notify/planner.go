package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mwestre/cadence/internal/domain/habit"
)

// HabitSource lists the habits a full replan covers.
type HabitSource interface {
	ListActive(ctx context.Context, uid string) ([]*habit.Habit, error)
}

// Planner turns habit notification settings into concrete dispatch calls.
// It implements habit.NotificationPlanner.
type Planner struct {
	dispatch Dispatcher
	logger   *slog.Logger
	now      func() time.Time
}

// NewPlanner creates a new Planner.
func NewPlanner(dispatch Dispatcher, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		dispatch: dispatch,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (p *Planner) SetNowFunc(now func() time.Time) { p.now = now }

// Replan cancels every trigger previously scheduled for the habit and then
// schedules the next occurrence per time slot. A deleted or disabled habit
// therefore ends with all its triggers cancelled and nothing rescheduled.
func (p *Planner) Replan(_ context.Context, h *habit.Habit) error {
	p.dispatch.Cancel(h.ID)

	if h.Meta.Deleted() || !h.Notif.Enabled {
		return nil
	}

	ref := p.now()
	payload := Payload{Title: h.Name, Message: h.Notif.Message, Mode: h.Notif.Mode}
	for _, slot := range h.Notif.Times {
		next := habit.NextTrigger(h, slot, ref)
		if next == nil {
			// No further occurrence in the habit's window. Valid terminal
			// outcome, not an error.
			continue
		}
		if err := p.dispatch.Schedule(h.ID, slot.String(), *next, payload); err != nil {
			return fmt.Errorf("scheduling %s/%s: %w", h.ID, slot, err)
		}
	}
	return nil
}

// ReplanAll refreshes triggers for every active habit, used by the daily
// background job and after boot or a system time change.
func (p *Planner) ReplanAll(ctx context.Context, uid string, habits HabitSource) error {
	list, err := habits.ListActive(ctx, uid)
	if err != nil {
		return fmt.Errorf("listing habits: %w", err)
	}
	for _, h := range list {
		if err := p.Replan(ctx, h); err != nil {
			p.logger.Warn("replan failed", "habit_id", h.ID, "error", err)
		}
	}
	return nil
}

package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mwestre/cadence/internal/domain/habit"
	"github.com/mwestre/cadence/internal/repository"
)

// Service orchestrates activity generation, status refresh and progress
// logging over the local store.
type Service struct {
	activities Repository
	habits     HabitSource
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new activity service.
func NewService(activities Repository, habits HabitSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		activities: activities,
		habits:     habits,
		logger:     logger,
		now:        time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (s *Service) SetNowFunc(now func() time.Time) { s.now = now }

// EnsureForDate tops up the activity set for one date: for every active
// habit due that day it compares how many instances should exist with how
// many do, and inserts only the missing ones. Safe to call repeatedly.
//
// On the habit's own creation date, slots whose time passed before the habit
// was created are not backfilled.
func (s *Service) EnsureForDate(ctx context.Context, uid string, date time.Time) error {
	habits, err := s.habits.ListActive(ctx, uid)
	if err != nil {
		return fmt.Errorf("listing habits: %w", err)
	}

	now := s.now()
	for _, h := range habits {
		wanted := Generate(h, date, now)
		if len(wanted) == 0 {
			continue
		}
		if habit.SameDate(date, h.Meta.CreatedAt) {
			wanted = dropSlotsBefore(wanted, h.Meta.CreatedAt)
			if len(wanted) == 0 {
				continue
			}
		}

		have, err := s.activities.CountByHabitAndDate(ctx, uid, h.ID, date)
		if err != nil {
			return fmt.Errorf("counting activities for habit %s: %w", h.ID, err)
		}
		if have >= len(wanted) {
			continue
		}
		if err := s.activities.InsertIgnore(ctx, uid, wanted); err != nil {
			return fmt.Errorf("inserting activities for habit %s: %w", h.ID, err)
		}
		s.logger.Debug("activities generated",
			"habit_id", h.ID, "date", habit.DateOf(date).Format("2006-01-02"),
			"wanted", len(wanted), "had", have)
	}
	return nil
}

// RefreshForDate recomputes lifecycle statuses for one date's activities and
// writes back only the rows whose status actually changed.
func (s *Service) RefreshForDate(ctx context.Context, uid string, date, now time.Time) error {
	acts, err := s.activities.ListByDate(ctx, uid, date)
	if err != nil {
		return fmt.Errorf("listing activities: %w", err)
	}
	for _, a := range acts {
		if a.Meta.Deleted() {
			continue
		}
		next := ComputeStatus(a, now)
		if next == a.Status {
			continue
		}
		a.Status = next
		a.Meta.Touch(now)
		if err := s.activities.Upsert(ctx, uid, a); err != nil {
			return fmt.Errorf("refreshing activity %s: %w", a.ID, err)
		}
	}
	return nil
}

// RegisterProgress records an explicit user log against an activity.
func (s *Service) RegisterProgress(ctx context.Context, uid, id string, qty float64, status Status, at time.Time) (*Activity, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	if status != StatusCompleted && status != StatusPartial {
		return nil, ErrInvalidStatus
	}
	if qty < 0 {
		qty = 0
	}

	a, err := s.activities.Get(ctx, uid, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading activity: %w", err)
	}
	if a.Meta.Deleted() {
		return nil, ErrActivityNotFound
	}

	logged := at
	a.RecordedQty = qty
	a.Status = status
	a.LoggedAt = &logged
	a.Meta.Touch(s.now())

	if err := s.activities.Upsert(ctx, uid, a); err != nil {
		return nil, fmt.Errorf("saving activity progress: %w", err)
	}
	return a, nil
}

// ListForDate refreshes then returns the date's live activities, so readers
// always observe up-to-date logging windows.
func (s *Service) ListForDate(ctx context.Context, uid string, date time.Time) ([]*Activity, error) {
	if err := s.RefreshForDate(ctx, uid, date, s.now()); err != nil {
		return nil, err
	}
	acts, err := s.activities.ListByDate(ctx, uid, date)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	live := acts[:0]
	for _, a := range acts {
		if !a.Meta.Deleted() {
			live = append(live, a)
		}
	}
	return live, nil
}

// dropSlotsBefore filters out scheduled slots earlier than the cutoff
// instant. The unscheduled slot always survives.
func dropSlotsBefore(acts []*Activity, cutoff time.Time) []*Activity {
	kept := acts[:0]
	for _, a := range acts {
		if a.ScheduledTime == nil || !a.ScheduledTime.On(a.Date).Before(cutoff) {
			kept = append(kept, a)
		}
	}
	return kept
}

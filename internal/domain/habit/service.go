package habit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mwestre/cadence/internal/repository"
	"github.com/mwestre/cadence/internal/syncmeta"
)

// Service handles habit business logic: create/update/delete plus the
// notification replanning every mutation implies.
type Service struct {
	habits     Repository
	activities ActivityCascade
	planner    NotificationPlanner
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new habit service.
func NewService(habits Repository, activities ActivityCascade, planner NotificationPlanner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		habits:     habits,
		activities: activities,
		planner:    planner,
		logger:     logger,
		now:        time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (s *Service) SetNowFunc(now func() time.Time) { s.now = now }

// CreateRequest describes a habit creation request.
type CreateRequest struct {
	Name        string
	Description string
	Category    string
	Icon        string
	Session     Session
	Repeat      Repeat
	Period      *Period
	Notif       NotifConfig
	BuiltIn     bool
}

// UpdateRequest describes a habit update. Nil fields are left unchanged.
type UpdateRequest struct {
	ID          string
	Name        *string
	Description *string
	Category    *string
	Icon        *string
	Session     *Session
	Repeat      *Repeat
	Period      *Period
	Notif       *NotifConfig
	Challenge   *Challenge
}

// Create validates and persists a new habit, then schedules its reminders.
func (s *Service) Create(ctx context.Context, uid string, req CreateRequest) (*Habit, error) {
	if req.Name == "" {
		return nil, ErrInvalidInput
	}
	if err := ValidateRepeat(req.Repeat); err != nil {
		return nil, err
	}
	if err := validateNotif(req.Notif); err != nil {
		return nil, err
	}

	h := &Habit{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Icon:        req.Icon,
		Session:     req.Session,
		Repeat:      req.Repeat,
		Period:      req.Period,
		Notif:       req.Notif,
		BuiltIn:     req.BuiltIn,
		Meta:        syncmeta.New(s.now()),
	}

	if err := s.habits.Upsert(ctx, uid, h); err != nil {
		return nil, fmt.Errorf("creating habit: %w", err)
	}
	s.replan(ctx, h)
	return h, nil
}

// Instantiate copies a built-in template into a fresh user-owned habit. The
// template itself is never mutated.
func (s *Service) Instantiate(ctx context.Context, uid, templateID string) (*Habit, error) {
	tpl, err := s.get(ctx, uid, templateID)
	if err != nil {
		return nil, err
	}
	if !tpl.BuiltIn {
		return nil, ErrInvalidInput
	}

	h := *tpl
	h.ID = uuid.NewString()
	h.BuiltIn = false
	h.Challenge = nil
	h.Meta = syncmeta.New(s.now())

	if err := s.habits.Upsert(ctx, uid, &h); err != nil {
		return nil, fmt.Errorf("instantiating habit template: %w", err)
	}
	s.replan(ctx, &h)
	return &h, nil
}

// Update applies an edit. Built-in templates are immutable, and a habit with
// an active challenge accepts only notification changes.
func (s *Service) Update(ctx context.Context, uid string, req UpdateRequest) (*Habit, error) {
	if req.ID == "" {
		return nil, ErrInvalidInput
	}
	h, err := s.get(ctx, uid, req.ID)
	if err != nil {
		return nil, err
	}
	if h.BuiltIn {
		return nil, ErrBuiltInImmutable
	}
	if h.Challenge != nil && touchesLockedFields(req) {
		return nil, ErrChallengeLocked
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, ErrInvalidInput
		}
		h.Name = *req.Name
	}
	if req.Description != nil {
		h.Description = *req.Description
	}
	if req.Category != nil {
		h.Category = *req.Category
	}
	if req.Icon != nil {
		h.Icon = *req.Icon
	}
	if req.Session != nil {
		h.Session = *req.Session
	}
	if req.Repeat != nil {
		if err := ValidateRepeat(*req.Repeat); err != nil {
			return nil, err
		}
		h.Repeat = *req.Repeat
	}
	if req.Period != nil {
		h.Period = req.Period
	}
	if req.Notif != nil {
		if err := validateNotif(*req.Notif); err != nil {
			return nil, err
		}
		h.Notif = *req.Notif
	}
	if req.Challenge != nil {
		h.Challenge = req.Challenge
	}

	h.Meta.Touch(s.now())
	if err := s.habits.Upsert(ctx, uid, h); err != nil {
		return nil, fmt.Errorf("updating habit: %w", err)
	}
	s.replan(ctx, h)
	return h, nil
}

// Delete tombstones the habit so the deletion propagates to other devices.
// A habit that never reached the remote store is removed outright, together
// with its generated activities.
func (s *Service) Delete(ctx context.Context, uid, id string) error {
	h, err := s.get(ctx, uid, id)
	if err != nil {
		return err
	}
	if h.BuiltIn {
		return ErrBuiltInImmutable
	}

	if !h.Meta.EverSynced() {
		if err := s.activities.DeleteByHabit(ctx, uid, h.ID); err != nil {
			return fmt.Errorf("cascading activity delete: %w", err)
		}
		if err := s.habits.Delete(ctx, uid, h.ID); err != nil {
			return fmt.Errorf("deleting habit: %w", err)
		}
	} else {
		h.Meta.Tombstone(s.now())
		if err := s.habits.Upsert(ctx, uid, h); err != nil {
			return fmt.Errorf("tombstoning habit: %w", err)
		}
	}

	s.replan(ctx, h)
	return nil
}

// Get returns a live (non-tombstoned) habit.
func (s *Service) Get(ctx context.Context, uid, id string) (*Habit, error) {
	return s.get(ctx, uid, id)
}

// ListActive returns all live habits for the user.
func (s *Service) ListActive(ctx context.Context, uid string) ([]*Habit, error) {
	return s.habits.ListActive(ctx, uid)
}

func (s *Service) get(ctx context.Context, uid, id string) (*Habit, error) {
	h, err := s.habits.Get(ctx, uid, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrHabitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading habit: %w", err)
	}
	if h.Meta.Deleted() {
		return nil, ErrHabitNotFound
	}
	return h, nil
}

// replan is best-effort: reminder scheduling failures must not fail the
// mutation that triggered them.
func (s *Service) replan(ctx context.Context, h *Habit) {
	if s.planner == nil {
		return
	}
	if err := s.planner.Replan(ctx, h); err != nil {
		s.logger.Warn("notification replan failed", "habit_id", h.ID, "error", err)
	}
}

// touchesLockedFields reports whether the update reaches beyond notification
// settings.
func touchesLockedFields(req UpdateRequest) bool {
	return req.Name != nil || req.Description != nil || req.Category != nil ||
		req.Icon != nil || req.Session != nil || req.Repeat != nil ||
		req.Period != nil || req.Challenge != nil
}

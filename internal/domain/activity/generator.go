package activity

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwestre/cadence/internal/domain/habit"
	"github.com/mwestre/cadence/internal/syncmeta"
)

// Generate builds the activity instances that should exist for the habit on
// the given date: one per configured reminder time, or a single unscheduled
// slot when no times are set. It returns nothing for habits without an
// active challenge or whose recurrence rule is not due on the date.
//
// Generate is pure; the insert-if-absent guarantee lives at the repository
// boundary (InsertIgnore), so re-running it for an already-populated date is
// harmless.
func Generate(h *habit.Habit, date, now time.Time) []*Activity {
	if h.Challenge == nil || h.Meta.Deleted() {
		return nil
	}
	if !habit.Matches(h.Repeat, date, h.Anchor()) {
		return nil
	}

	day := habit.DateOf(date)
	endOfDay := day.AddDate(0, 0, 1)

	build := func(slot *habit.ClockTime) *Activity {
		opens := day
		if slot != nil {
			opens = slot.On(day)
		}
		expires := endOfDay
		return &Activity{
			ID:            uuid.NewString(),
			HabitID:       h.ID,
			Date:          day,
			ScheduledTime: slot,
			OpensAt:       &opens,
			ExpiresAt:     &expires,
			Status:        StatusPending,
			TargetQty:     h.Session.Target,
			SessionUnit:   h.Session.Unit,
			GeneratedAt:   now,
			Meta:          syncmeta.New(now),
		}
	}

	if len(h.Notif.Times) == 0 {
		return []*Activity{build(nil)}
	}
	acts := make([]*Activity, 0, len(h.Notif.Times))
	for _, t := range h.Notif.Times {
		slot := t
		acts = append(acts, build(&slot))
	}
	return acts
}

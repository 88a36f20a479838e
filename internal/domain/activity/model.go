package activity

import (
	"time"

	"github.com/mwestre/cadence/internal/domain/habit"
	"github.com/mwestre/cadence/internal/syncmeta"
)

// Status is the lifecycle state of an activity instance
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAvailable Status = "AVAILABLE_FOR_LOGGING"
	StatusCompleted Status = "COMPLETED"
	StatusPartial   Status = "PARTIALLY_COMPLETED"
	StatusMissed    Status = "MISSED"
)

// Terminal reports whether the status was set by explicit user logging and
// must never be overwritten by the refresher.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusPartial
}

// Activity is one dated, loggable instance of a habit. A habit with several
// reminder times yields one activity per time slot on each due date.
type Activity struct {
	ID      string `json:"id"`
	HabitID string `json:"habit_id"`
	// Date is the calendar date the instance belongs to (midnight).
	Date time.Time `json:"date"`
	// ScheduledTime is nil for the single "any time today" slot.
	ScheduledTime *habit.ClockTime `json:"scheduled_time,omitempty"`
	OpensAt       *time.Time       `json:"opens_at,omitempty"`
	ExpiresAt     *time.Time       `json:"expires_at,omitempty"`
	Status        Status           `json:"status"`
	TargetQty     float64          `json:"target_qty"`
	RecordedQty   float64          `json:"recorded_qty"`
	SessionUnit   string           `json:"session_unit,omitempty"`
	LoggedAt      *time.Time       `json:"logged_at,omitempty"`
	GeneratedAt   time.Time        `json:"generated_at"`
	Meta          syncmeta.Meta    `json:"meta"`
}

// EntityID implements sync.Entity.
func (a *Activity) EntityID() string { return a.ID }

// SyncMeta implements sync.Entity.
func (a *Activity) SyncMeta() *syncmeta.Meta { return &a.Meta }

// SlotKey identifies the time slot within the (habit, date) pair. The empty
// string is the unscheduled slot.
func (a *Activity) SlotKey() string {
	if a.ScheduledTime == nil {
		return ""
	}
	return a.ScheduledTime.String()
}

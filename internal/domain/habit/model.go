package habit

import (
	"fmt"
	"time"

	"github.com/mwestre/cadence/internal/syncmeta"
)

// RepeatKind identifies a recurrence pattern. The set is closed: rules are
// chosen from these kinds, never user-scripted.
type RepeatKind string

const (
	RepeatNone          RepeatKind = "none"
	RepeatDaily         RepeatKind = "daily"
	RepeatWeekly        RepeatKind = "weekly"
	RepeatMonthly       RepeatKind = "monthly"
	RepeatYearly        RepeatKind = "yearly"
	RepeatMonthlyByWeek RepeatKind = "monthly_by_week"
	RepeatBusinessDays  RepeatKind = "business_days"
)

// Occurrence selects which weekday occurrence inside a month a
// RepeatMonthlyByWeek rule targets. OccurrenceLast means the final one.
type Occurrence int

const (
	OccurrenceFirst  Occurrence = 1
	OccurrenceSecond Occurrence = 2
	OccurrenceThird  Occurrence = 3
	OccurrenceFourth Occurrence = 4
	OccurrenceLast   Occurrence = -1
)

// Repeat is a tagged union over the closed recurrence kinds. Only the fields
// belonging to Kind are meaningful.
type Repeat struct {
	Kind RepeatKind `json:"kind"`

	// Every applies to daily and business_days rules.
	Every int `json:"every,omitempty"`
	// Weekdays applies to weekly rules.
	Weekdays []time.Weekday `json:"weekdays,omitempty"`
	// DayOfMonth applies to monthly rules.
	DayOfMonth int `json:"day_of_month,omitempty"`
	// Month and Day apply to yearly rules.
	Month time.Month `json:"month,omitempty"`
	Day   int        `json:"day,omitempty"`
	// Weekday and Occurrence apply to monthly_by_week rules.
	Weekday    time.Weekday `json:"weekday,omitempty"`
	Occurrence Occurrence   `json:"occurrence,omitempty"`
}

// ClockTime is a wall-clock time of day, independent of any date.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseClock parses a "15:04" string.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// On combines the clock time with a calendar date in the date's location.
func (c ClockTime) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, date.Location())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns minutes from midnight, used for same-day ordering.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// AlertMode controls how a reminder presents itself.
type AlertMode string

const (
	AlertSound   AlertMode = "sound"
	AlertVibrate AlertMode = "vibrate"
	AlertSilent  AlertMode = "silent"
)

// Session is the per-occurrence target, e.g. "3 times" or "20 minutes".
type Session struct {
	Target float64 `json:"target"`
	Unit   string  `json:"unit"`
}

// Period optionally bounds the overall duration of the habit.
type Period struct {
	Qty  int    `json:"qty"`
	Unit string `json:"unit"`
}

// NotifConfig describes reminder delivery for a habit.
type NotifConfig struct {
	Enabled    bool        `json:"enabled"`
	Times      []ClockTime `json:"times,omitempty"`
	Message    string      `json:"message,omitempty"`
	AdvanceMin int         `json:"advance_min,omitempty"`
	Mode       AlertMode   `json:"mode,omitempty"`
	StartsAt   *time.Time  `json:"starts_at,omitempty"`
	ExpiresAt  *time.Time  `json:"expires_at,omitempty"`
}

// Challenge tracks an active challenge run on a habit. While non-nil, the
// habit definition is locked except for its notification settings.
type Challenge struct {
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Streak     int       `json:"streak"`
	BestStreak int       `json:"best_streak"`
}

// Habit is a user-defined recurring task definition.
type Habit struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category,omitempty"`
	Icon        string        `json:"icon,omitempty"`
	Session     Session       `json:"session"`
	Repeat      Repeat        `json:"repeat"`
	Period      *Period       `json:"period,omitempty"`
	Notif       NotifConfig   `json:"notif"`
	Challenge   *Challenge    `json:"challenge,omitempty"`
	BuiltIn     bool          `json:"built_in,omitempty"`
	Meta        syncmeta.Meta `json:"meta"`
}

// EntityID implements sync.Entity.
func (h *Habit) EntityID() string { return h.ID }

// SyncMeta implements sync.Entity.
func (h *Habit) SyncMeta() *syncmeta.Meta { return &h.Meta }

// Anchor is the date recurrence offsets are computed from: the configured
// notification start date when set, else the creation date.
func (h *Habit) Anchor() time.Time {
	if h.Notif.StartsAt != nil {
		return DateOf(*h.Notif.StartsAt)
	}
	return DateOf(h.Meta.CreatedAt)
}

// DateOf truncates an instant to its calendar date (midnight, same location).
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether two instants fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

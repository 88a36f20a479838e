// Package notify plans reminder triggers and hands them to a dispatch port.
// The port abstracts the platform alarm facility so the core stays
// platform-agnostic.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mwestre/cadence/internal/domain/habit"
)

// Payload is what a fired reminder presents.
type Payload struct {
	Title   string
	Message string
	Mode    habit.AlertMode
}

// Dispatcher schedules and cancels reminder triggers. Cancellation works
// from the (habit, slot) identifiers alone; it must not require the habit
// record to still exist.
type Dispatcher interface {
	Schedule(habitID, slotKey string, firesAt time.Time, payload Payload) error
	Cancel(habitID string)
	CancelSlot(habitID, slotKey string)
}

// FireFunc receives a trigger the moment it fires.
type FireFunc func(habitID, slotKey string, payload Payload)

// TimerDispatcher is an in-process Dispatcher on wall-clock timers. A
// platform build would replace it with OS alarms; the planner doesn't care.
type TimerDispatcher struct {
	mu     sync.Mutex
	timers map[string]map[string]*time.Timer
	onFire FireFunc
	logger *slog.Logger
}

// NewTimerDispatcher creates a dispatcher delivering to onFire.
func NewTimerDispatcher(onFire FireFunc, logger *slog.Logger) *TimerDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerDispatcher{
		timers: make(map[string]map[string]*time.Timer),
		onFire: onFire,
		logger: logger,
	}
}

// Schedule arms (or re-arms) the trigger for one (habit, slot) pair.
func (d *TimerDispatcher) Schedule(habitID, slotKey string, firesAt time.Time, payload Payload) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if slots, ok := d.timers[habitID]; ok {
		if t, ok := slots[slotKey]; ok {
			t.Stop()
		}
	} else {
		d.timers[habitID] = make(map[string]*time.Timer)
	}

	d.timers[habitID][slotKey] = time.AfterFunc(time.Until(firesAt), func() {
		d.mu.Lock()
		if slots, ok := d.timers[habitID]; ok {
			delete(slots, slotKey)
		}
		d.mu.Unlock()
		if d.onFire != nil {
			d.onFire(habitID, slotKey, payload)
		}
	})
	d.logger.Debug("trigger scheduled", "habit_id", habitID, "slot", slotKey, "fires_at", firesAt)
	return nil
}

// Cancel stops every trigger for the habit.
func (d *TimerDispatcher) Cancel(habitID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.timers[habitID] {
		t.Stop()
	}
	delete(d.timers, habitID)
}

// CancelSlot stops a single (habit, slot) trigger.
func (d *TimerDispatcher) CancelSlot(habitID, slotKey string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slots, ok := d.timers[habitID]; ok {
		if t, ok := slots[slotKey]; ok {
			t.Stop()
			delete(slots, slotKey)
		}
	}
}

// Stop cancels everything, for shutdown.
func (d *TimerDispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, slots := range d.timers {
		for _, t := range slots {
			t.Stop()
		}
	}
	d.timers = make(map[string]map[string]*time.Timer)
}

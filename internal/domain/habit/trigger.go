package habit

import "time"

// maxTriggerScanDays bounds the day-by-day search so a rule that never
// matches again cannot loop forever. Five years of no occurrences is treated
// as "no further trigger".
const maxTriggerScanDays = 5 * 365

// NextTrigger computes the next absolute instant a reminder for the given
// time slot must fire, relative to ref. The advance-notice offset is already
// subtracted from the result. Returns nil when the habit has no further
// occurrence: its window expired, or nothing matched within the scan bound.
// The result is never before ref.
func NextTrigger(h *Habit, slot ClockTime, ref time.Time) *time.Time {
	start := DateOf(ref)
	if s := h.Notif.StartsAt; s != nil && DateOf(*s).After(start) {
		start = DateOf(*s)
	}
	anchor := h.Anchor()
	advance := time.Duration(h.Notif.AdvanceMin) * time.Minute

	for i := 0; i < maxTriggerScanDays; i++ {
		day := start.AddDate(0, 0, i)
		if exp := h.Notif.ExpiresAt; exp != nil && day.After(DateOf(*exp)) {
			return nil
		}
		if !Matches(h.Repeat, day, anchor) {
			continue
		}
		fire := slot.On(day).Add(-advance)
		if fire.Before(ref) {
			// Candidate already passed; resume strictly after it.
			continue
		}
		return &fire
	}
	return nil
}

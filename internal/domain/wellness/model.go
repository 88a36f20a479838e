// Package wellness holds the mood-journal entries synced alongside habits.
package wellness

import (
	"time"

	"github.com/mwestre/cadence/internal/syncmeta"
)

// EmotionEntry is one mood check-in.
type EmotionEntry struct {
	ID         string        `json:"id"`
	Mood       string        `json:"mood"`
	Intensity  int           `json:"intensity"`
	Note       string        `json:"note,omitempty"`
	RecordedAt time.Time     `json:"recorded_at"`
	Meta       syncmeta.Meta `json:"meta"`
}

func (e *EmotionEntry) EntityID() string { return e.ID }

func (e *EmotionEntry) SyncMeta() *syncmeta.Meta { return &e.Meta }

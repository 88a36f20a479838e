// Package profile holds the per-user records that ride along in sync:
// the profile itself, unlocked achievements, and onboarding progress.
package profile

import (
	"time"

	"github.com/mwestre/cadence/internal/syncmeta"
)

// UserProfile is the user's own record; its id equals the user id.
type UserProfile struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"display_name"`
	AvatarURL   string        `json:"avatar_url,omitempty"`
	Timezone    string        `json:"timezone,omitempty"`
	Meta        syncmeta.Meta `json:"meta"`
}

func (p *UserProfile) EntityID() string { return p.ID }

func (p *UserProfile) SyncMeta() *syncmeta.Meta { return &p.Meta }

// Achievement records one unlocked achievement. Unlock rules live outside
// this core; the record only exists so unlocks survive reinstallation.
type Achievement struct {
	ID         string        `json:"id"`
	Code       string        `json:"code"`
	UnlockedAt time.Time     `json:"unlocked_at"`
	Meta       syncmeta.Meta `json:"meta"`
}

func (a *Achievement) EntityID() string { return a.ID }

func (a *Achievement) SyncMeta() *syncmeta.Meta { return &a.Meta }

// OnboardingState tracks tutorial progress; its id equals the user id.
type OnboardingState struct {
	ID             string        `json:"id"`
	CompletedSteps []string      `json:"completed_steps,omitempty"`
	Completed      bool          `json:"completed"`
	Meta           syncmeta.Meta `json:"meta"`
}

func (o *OnboardingState) EntityID() string { return o.ID }

func (o *OnboardingState) SyncMeta() *syncmeta.Meta { return &o.Meta }

package activity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mwestre/cadence/internal/domain/activity"
)

func TestComputeStatus_WindowProgression(t *testing.T) {
	opens := time.Date(2024, time.March, 2, 8, 0, 0, 0, time.UTC)
	expires := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)
	a := &activity.Activity{Status: activity.StatusPending, OpensAt: &opens, ExpiresAt: &expires}

	require.Equal(t, activity.StatusPending, activity.ComputeStatus(a, opens.Add(-time.Hour)))
	require.Equal(t, activity.StatusAvailable, activity.ComputeStatus(a, opens))
	require.Equal(t, activity.StatusAvailable, activity.ComputeStatus(a, expires))
	require.Equal(t, activity.StatusMissed, activity.ComputeStatus(a, expires.Add(time.Second)))
}

func TestComputeStatus_TerminalIsSticky(t *testing.T) {
	opens := time.Date(2024, time.March, 2, 8, 0, 0, 0, time.UTC)
	expires := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)

	for _, st := range []activity.Status{activity.StatusCompleted, activity.StatusPartial} {
		a := &activity.Activity{Status: st, OpensAt: &opens, ExpiresAt: &expires}
		require.Equal(t, st, activity.ComputeStatus(a, expires.Add(48*time.Hour)))
		require.Equal(t, st, activity.ComputeStatus(a, opens.Add(-48*time.Hour)))
	}
}

func TestComputeStatus_UnboundedWindow(t *testing.T) {
	a := &activity.Activity{Status: activity.StatusPending}
	require.Equal(t, activity.StatusAvailable, activity.ComputeStatus(a, time.Now()))
}

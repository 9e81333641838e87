package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanClockIn(t *testing.T) {
	start := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 10, 16, 0, 0, 0, time.UTC)

	// Too early: 21 minutes before the start.
	require.False(t, CanClockIn(start.Add(-21*time.Minute), start, end))

	// Window opens 20 minutes before the start.
	require.True(t, CanClockIn(start.Add(-20*time.Minute), start, end))
	require.True(t, CanClockIn(start.Add(-1*time.Minute), start, end))

	// Any time during the shift works, even a late arrival.
	require.True(t, CanClockIn(start, start, end))
	require.True(t, CanClockIn(start.Add(3*time.Hour), start, end))
	require.True(t, CanClockIn(end.Add(-time.Second), start, end))

	// Window closes at the scheduled end.
	require.False(t, CanClockIn(end, start, end))
	require.False(t, CanClockIn(end.Add(time.Hour), start, end))
}

func TestClockInDenial(t *testing.T) {
	start := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 10, 16, 0, 0, 0, time.UTC)
	inWindow := start.Add(5 * time.Minute)

	require.Empty(t, ClockInDenial(inWindow, start, end, "scheduled", 0))

	// An agent may run at most one shift at a time.
	require.Contains(t, ClockInDenial(inWindow, start, end, "scheduled", 1), "already in progress")

	require.Contains(t, ClockInDenial(inWindow, start, end, "completed", 0), "not in scheduled state")
	require.Contains(t, ClockInDenial(inWindow, start, end, "in_progress", 0), "not in scheduled state")
	require.Contains(t, ClockInDenial(start.Add(-time.Hour), start, end, "scheduled", 0), "20 minutes")
}

func TestGenerateSelfieFilename(t *testing.T) {
	a := generateSelfieFilename(7, ".jpg")
	b := generateSelfieFilename(7, ".jpg")

	require.Contains(t, a, "selfie_7_")
	require.True(t, len(a) > len("selfie_7_.jpg"))
	require.NotEqual(t, a, b)
}

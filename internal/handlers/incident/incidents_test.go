package incident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewIncidentReference(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

	ref := NewIncidentReference(now)
	require.Regexp(t, `^INC-20250610-[0-9a-f]{8}$`, ref)

	// References must not collide.
	require.NotEqual(t, ref, NewIncidentReference(now))
}

func TestValidIncidentUpdateStatus(t *testing.T) {
	require.True(t, ValidIncidentUpdateStatus("open"))
	require.True(t, ValidIncidentUpdateStatus("investigating"))

	// Resolution goes through its own endpoint.
	require.False(t, ValidIncidentUpdateStatus("resolved"))
	require.False(t, ValidIncidentUpdateStatus(""))
	require.False(t, ValidIncidentUpdateStatus("closed"))
}

package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewReportReference(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

	ref := NewReportReference(now)
	require.Regexp(t, `^RPT-20250610-[0-9a-f]{8}$`, ref)
	require.NotEqual(t, ref, NewReportReference(now))
}

func TestValidReportType(t *testing.T) {
	for _, v := range []string{"patrol", "incident_followup", "maintenance", "other"} {
		require.True(t, validReportType(v), v)
	}
	require.False(t, validReportType(""))
	require.False(t, validReportType("inspection"))
}

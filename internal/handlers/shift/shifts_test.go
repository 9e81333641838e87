package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulesOverlap(t *testing.T) {
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical", at(8), at(16), at(8), at(16), true},
		{"contained", at(8), at(16), at(10), at(12), true},
		{"partial front", at(8), at(16), at(6), at(10), true},
		{"partial back", at(8), at(16), at(14), at(20), true},
		{"back to back", at(8), at(16), at(16), at(20), false},
		{"back to back before", at(8), at(16), at(4), at(8), false},
		{"disjoint", at(8), at(16), at(18), at(20), false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, SchedulesOverlap(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd), tc.name)
	}
}

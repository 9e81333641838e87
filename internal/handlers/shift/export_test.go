package shift

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildShiftsWorkbook(t *testing.T) {
	rows := []ExportRow{
		{
			ID:          1,
			AgentName:   "Kouassi Yao",
			SiteName:    "Plateau Tower",
			ClientName:  "Bahin SARL",
			Scheduled:   "2025-06-10 08:00 - 16:00",
			ActualStart: "2025-06-10 07:55",
			ActualEnd:   "2025-06-10 16:02",
			Status:      "completed",
			WorkedTime:  "8h 07m",
		},
		{
			ID:         2,
			AgentName:  "Aya Brou",
			SiteName:   "Cocody Mall",
			ClientName: "Bahin SARL",
			Scheduled:  "2025-06-10 20:00 - 04:00",
			Status:     "missed",
			WorkedTime: "0m",
		},
	}

	f, err := BuildShiftsWorkbook(rows)
	require.NoError(t, err)

	got, err := f.GetRows("Shifts")
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, exportHeader, got[0][:len(exportHeader)])
	require.Equal(t, "Kouassi Yao", got[1][1])
	require.Equal(t, "completed", got[1][7])
	require.Equal(t, "missed", got[2][7])
}

func TestBuildShiftsWorkbookEmpty(t *testing.T) {
	f, err := BuildShiftsWorkbook(nil)
	require.NoError(t, err)

	got, err := f.GetRows("Shifts")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestParseExportRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/admin/shifts/export?from=2025-06-01&to=2025-06-30", nil)
	from, to, err := parseExportRange(r)
	require.NoError(t, err)
	require.Equal(t, "2025-06-01", from.Format("2006-01-02"))
	// The to bound is exclusive, one day past the requested date.
	require.Equal(t, "2025-07-01", to.Format("2006-01-02"))

	r = httptest.NewRequest("GET", "/api/admin/shifts/export?from=2025-06-30&to=2025-06-01", nil)
	_, _, err = parseExportRange(r)
	require.Error(t, err)

	r = httptest.NewRequest("GET", "/api/admin/shifts/export?from=2025-06-01", nil)
	_, _, err = parseExportRange(r)
	require.Error(t, err)

	r = httptest.NewRequest("GET", "/api/admin/shifts/export?from=junk&to=2025-06-30", nil)
	_, _, err = parseExportRange(r)
	require.Error(t, err)
}

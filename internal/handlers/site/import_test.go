package site

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseImportRows(t *testing.T) {
	rows := [][]string{
		{"name", "address", "latitude", "longitude", "radius_m", "client"},
		{"Plateau Tower", "Av. Delafosse", "5.3210", "-4.0210", "200", "Bahin SARL"},
		{"Cocody Mall", "Bd Mitterrand", "5.3600", "-3.9870", "", "Bahin SARL"},
	}

	parsed, err := ParseImportRows(rows)
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	require.Equal(t, "Plateau Tower", parsed[0].Name)
	require.InDelta(t, 5.3210, parsed[0].Latitude, 0.0001)
	require.InDelta(t, 200, parsed[0].RadiusM, 0.01)

	// A blank radius falls back to the default fence.
	require.InDelta(t, 150, parsed[1].RadiusM, 0.01)
}

func TestParseImportRowsSkipsBlankLines(t *testing.T) {
	rows := [][]string{
		{"name", "address", "latitude", "longitude", "radius_m", "client"},
		{"", "", "", "", "", ""},
		{"Plateau Tower", "Av. Delafosse", "5.3210", "-4.0210", "150", "Bahin SARL"},
		{"short", "row"},
	}

	parsed, err := ParseImportRows(rows)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
}

func TestParseImportRowsErrors(t *testing.T) {
	header := []string{"name", "address", "latitude", "longitude", "radius_m", "client"}

	cases := []struct {
		name string
		row  []string
		want string
	}{
		{"missing client", []string{"Plateau Tower", "Av. Delafosse", "5.3", "-4.0", "150", ""}, "row 2"},
		{"bad latitude", []string{"Plateau Tower", "", "91.5", "-4.0", "150", "Bahin SARL"}, "latitude"},
		{"bad longitude", []string{"Plateau Tower", "", "5.3", "-191.0", "150", "Bahin SARL"}, "longitude"},
		{"negative radius", []string{"Plateau Tower", "", "5.3", "-4.0", "-10", "Bahin SARL"}, "radius"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseImportRows([][]string{header, tc.row})
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseImportRowsNoUsableRows(t *testing.T) {
	rows := [][]string{
		{"name", "address", "latitude", "longitude", "radius_m", "client"},
		{"", "", "", "", "", ""},
	}

	_, err := ParseImportRows(rows)
	require.Error(t, err)
}

package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	require.Equal(t, "0m", FormatDuration(0))
	require.Equal(t, "0m", FormatDuration(-5))
	require.Equal(t, "0m", FormatDuration(59))
	require.Equal(t, "1m", FormatDuration(60))
	require.Equal(t, "59m", FormatDuration(3599))
	require.Equal(t, "1h 00m", FormatDuration(3600))
	require.Equal(t, "2h 05m", FormatDuration(2*3600+5*60))
	require.Equal(t, "8h 07m", FormatDuration(8*3600+7*60+30))
}

func TestRespondWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithJSON(rec, 201, map[string]string{"message": "ok"})

	require.Equal(t, 201, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["message"])
}

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, 404, "Not found")

	require.Equal(t, 404, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Not found", body["error"])
}

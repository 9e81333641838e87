package appversion

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csma94/guard-sub008/internal/models"
)

func TestDetectPlatform(t *testing.T) {
	cases := []struct {
		userAgent string
		want      string
	}{
		{"Dalvik/2.1.0 (Linux; U; Android 14; Pixel 8)", "android"},
		{"BahinLink/1.2 (iPhone; iOS 17.5)", "ios"},
		{"Mozilla/5.0 (iPad; CPU OS 16_6)", "ios"},
		{"Mozilla/5.0 (Windows NT 10.0)", "unknown"},
		{"", "unknown"},
	}

	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/api/app/version/latest", nil)
		if tc.userAgent != "" {
			r.Header.Set("User-Agent", tc.userAgent)
		}
		require.Equal(t, tc.want, detectPlatform(r), tc.userAgent)
	}
}

type stubVersionStore struct {
	versions map[string][]models.AppVersion
	errs     map[string]error
}

func (s *stubVersionStore) GetAllVersions(platform string) ([]models.AppVersion, error) {
	if err := s.errs[platform]; err != nil {
		return nil, err
	}
	return s.versions[platform], nil
}

func (s *stubVersionStore) CheckVersion(string, string, int) (*models.VersionCheckResponse, error) {
	return &models.VersionCheckResponse{}, nil
}

func (s *stubVersionStore) GetLatestVersion(string) (*models.AppVersion, error) {
	return nil, errors.New("not implemented")
}

func (s *stubVersionStore) CreateVersion(*models.AppVersion) error { return nil }
func (s *stubVersionStore) UpdateVersion(*models.AppVersion) error { return nil }
func (s *stubVersionStore) DeleteVersion(int) error                { return nil }

func TestListVersionsHandlerMergesPlatforms(t *testing.T) {
	h := &Handler{repo: &stubVersionStore{versions: map[string][]models.AppVersion{
		"android": {{ID: 1, Platform: "android", Version: "1.2.0", BuildNumber: 12}},
		"ios":     {{ID: 2, Platform: "ios", Version: "1.1.0", BuildNumber: 9}},
	}}}

	rec := httptest.NewRecorder()
	h.ListVersionsHandler(rec, httptest.NewRequest("GET", "/api/admin/app/versions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.AppVersion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
}

func TestListVersionsHandlerReportsStoreErrors(t *testing.T) {
	h := &Handler{repo: &stubVersionStore{
		versions: map[string][]models.AppVersion{"android": {{ID: 1, Platform: "android"}}},
		errs:     map[string]error{"ios": errors.New("query failed")},
	}}

	rec := httptest.NewRecorder()
	h.ListVersionsHandler(rec, httptest.NewRequest("GET", "/api/admin/app/versions", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, tokenAuth *jwtauth.JWTAuth, guard func(http.Handler) http.Handler) *chi.Mux {
	t.Helper()

	router := chi.NewRouter()
	router.Use(jwtauth.Verifier(tokenAuth))
	router.Use(jwtauth.Authenticator(tokenAuth))
	router.Use(guard)
	router.Get("/protected", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return router
}

func tokenForRole(t *testing.T, tokenAuth *jwtauth.JWTAuth, role string) string {
	t.Helper()

	_, tokenString, err := tokenAuth.Encode(map[string]interface{}{
		"user_id":  "42",
		"username": "tester",
		"role":     role,
	})
	require.NoError(t, err)
	return tokenString
}

func doRequest(router *chi.Mux, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "BEARER "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireRoles(t *testing.T) {
	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	router := newTestRouter(t, tokenAuth, RequireRoles("admin", "supervisor"))

	require.Equal(t, http.StatusOK, doRequest(router, tokenForRole(t, tokenAuth, "admin")).Code)
	require.Equal(t, http.StatusOK, doRequest(router, tokenForRole(t, tokenAuth, "supervisor")).Code)
	require.Equal(t, http.StatusForbidden, doRequest(router, tokenForRole(t, tokenAuth, "agent")).Code)
	require.Equal(t, http.StatusUnauthorized, doRequest(router, "").Code)
}

func TestRequireRolesMissingRoleClaim(t *testing.T) {
	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	router := newTestRouter(t, tokenAuth, RequireRoles("admin"))

	_, tokenString, err := tokenAuth.Encode(map[string]interface{}{"user_id": "42"})
	require.NoError(t, err)

	require.Equal(t, http.StatusForbidden, doRequest(router, tokenString).Code)
}

func TestAdminOnly(t *testing.T) {
	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	router := newTestRouter(t, tokenAuth, AdminOnly())

	for _, role := range []string{"superadmin", "admin", "supervisor"} {
		require.Equal(t, http.StatusOK, doRequest(router, tokenForRole(t, tokenAuth, role)).Code, role)
	}
	for _, role := range []string{"client", "agent"} {
		require.Equal(t, http.StatusForbidden, doRequest(router, tokenForRole(t, tokenAuth, role)).Code, role)
	}
}

func TestStaffOrClient(t *testing.T) {
	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	router := newTestRouter(t, tokenAuth, StaffOrClient())

	require.Equal(t, http.StatusOK, doRequest(router, tokenForRole(t, tokenAuth, "client")).Code)
	require.Equal(t, http.StatusForbidden, doRequest(router, tokenForRole(t, tokenAuth, "agent")).Code)
}

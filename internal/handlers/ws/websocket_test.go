package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/csma94/guard-sub008/internal/services/notify"
)

func TestWebSocketHandlerRejectsBadTokens(t *testing.T) {
	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	hub := notify.NewHub()
	handler := WebSocketHandler(tokenAuth, hub)

	// No token at all.
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/ws", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/ws?token=garbage", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid signature but missing claims.
	_, tokenString, err := tokenAuth.Encode(map[string]interface{}{"foo": "bar"})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/ws?token="+tokenString, nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Signed with a different secret.
	otherAuth := jwtauth.New("HS256", []byte("other-secret"), nil)
	_, tokenString, err = otherAuth.Encode(map[string]interface{}{"user_id": "1", "role": "agent"})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/ws?token="+tokenString, nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebSocketHandlerAcceptsValidToken(t *testing.T) {
	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	hub := notify.NewHub()

	srv := httptest.NewServer(WebSocketHandler(tokenAuth, hub))
	defer srv.Close()

	_, tokenString, err := tokenAuth.Encode(map[string]interface{}{
		"user_id": "42",
		"role":    "admin",
	})
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + tokenString
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub run loop a moment to pick up the registration.
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastToRoles("notification", map[string]string{"title": "ping"}, "admin")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(data), `"notification"`)
}

package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialTestClient opens a websocket connection; the test server registers the
// server side with the hub using whatever identity is currently staged.
func dialTestClient(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(serverURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Give the hub run loop a moment to pick up the registration.
	time.Sleep(20 * time.Millisecond)
	return conn
}

func newHubServer(t *testing.T, hub *Hub, userID *int, role *string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		client := &Client{
			Conn:   conn,
			Send:   make(chan []byte, 16),
			UserID: *userID,
			Role:   *role,
		}
		hub.Register(client)
		go hub.ReadPump(client)
		go hub.WritePump(client)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func expectNoEvent(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()

	userID, role := 1, "agent"
	srv := newHubServer(t, hub, &userID, &role)

	agentConn := dialTestClient(t, srv.URL)
	userID, role = 2, "admin"
	adminConn := dialTestClient(t, srv.URL)

	hub.BroadcastEvent("notification", map[string]string{"title": "hello"})

	for _, conn := range []*websocket.Conn{agentConn, adminConn} {
		ev := readEvent(t, conn)
		require.Equal(t, "notification", ev.Type)
		payload, ok := ev.Payload.(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, "hello", payload["title"])
		require.False(t, ev.Timestamp.IsZero())
	}
}

func TestHubBroadcastToRoles(t *testing.T) {
	hub := NewHub()

	userID, role := 1, "agent"
	srv := newHubServer(t, hub, &userID, &role)

	agentConn := dialTestClient(t, srv.URL)
	userID, role = 2, "admin"
	adminConn := dialTestClient(t, srv.URL)

	hub.BroadcastToRoles("emergency_alert", map[string]string{"severity": "critical"},
		"superadmin", "admin", "supervisor")

	ev := readEvent(t, adminConn)
	require.Equal(t, "emergency_alert", ev.Type)

	expectNoEvent(t, agentConn)
}

func TestHubSendToUser(t *testing.T) {
	hub := NewHub()

	userID, role := 7, "agent"
	srv := newHubServer(t, hub, &userID, &role)

	targetConn := dialTestClient(t, srv.URL)
	userID = 8
	otherConn := dialTestClient(t, srv.URL)

	hub.SendToUser("notification", map[string]string{"title": "just for you"}, 7)

	ev := readEvent(t, targetConn)
	require.Equal(t, "notification", ev.Type)

	expectNoEvent(t, otherConn)
}

// internal/handlers/ws/websocket.go
package ws

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/jwtauth/v5"
	"github.com/gorilla/websocket"

	"github.com/csma94/guard-sub008/internal/services/notify"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades the connection and registers the client with the
// hub. Browsers cannot set an Authorization header on websocket dials, so the
// access token travels in the token query param.
func WebSocketHandler(tokenAuth *jwtauth.JWTAuth, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "token required", http.StatusUnauthorized)
			return
		}

		token, err := jwtauth.VerifyToken(tokenAuth, tokenString)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		claims, err := token.AsMap(r.Context())
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		userID := 0
		switch v := claims["user_id"].(type) {
		case float64:
			userID = int(v)
		case string:
			userID, _ = strconv.Atoi(v)
		}
		role, _ := claims["role"].(string)
		if userID == 0 || role == "" {
			http.Error(w, "invalid token claims", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Websocket upgrade error: %v", err)
			return
		}

		client := &notify.Client{
			Conn:   conn,
			Send:   make(chan []byte, 256),
			UserID: userID,
			Role:   role,
		}

		hub.Register(client)
		go hub.ReadPump(client)
		go hub.WritePump(client)
	}
}

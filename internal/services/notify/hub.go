// internal/services/notify/hub.go
package notify

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// Event is the envelope every websocket message is wrapped in.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type message struct {
	data   []byte
	roles  []string // empty means everyone
	userID int      // 0 means no user filter
}

// Hub relays events to connected portal and mobile clients. The run loop
// owns the client set; all mutation goes through the channels.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	go h.Run()
	return h
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastEvent sends an event to every connected client.
func (h *Hub) BroadcastEvent(eventType string, payload interface{}) {
	h.send(eventType, payload, nil, 0)
}

// BroadcastToRoles sends an event only to clients holding one of the roles.
func (h *Hub) BroadcastToRoles(eventType string, payload interface{}, roles ...string) {
	h.send(eventType, payload, roles, 0)
}

// SendToUser sends an event to every connection of a single user.
func (h *Hub) SendToUser(eventType string, payload interface{}, userID int) {
	h.send(eventType, payload, nil, userID)
}

func (h *Hub) send(eventType string, payload interface{}, roles []string, userID int) {
	data, err := json.Marshal(Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", eventType, err)
		return
	}
	h.broadcast <- message{data: data, roles: roles, userID: userID}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if !roleAllowed(msg.roles, client.Role) {
					continue
				}
				if msg.userID != 0 && client.UserID != msg.userID {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					// Slow consumer: drop it rather than block the hub.
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}

func roleAllowed(roles []string, role string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (h *Hub) ReadPump(client *Client) {
	defer func() {
		h.Unregister(client)
		client.Conn.Close()
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) WritePump(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			client.Conn.WriteMessage(websocket.TextMessage, msg)
		case <-ticker.C:
			client.Conn.WriteMessage(websocket.PingMessage, nil)
		}
	}
}

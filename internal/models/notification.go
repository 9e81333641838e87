package models

import "time"

// Notification event types pushed over the websocket.
const (
	EventNotification   = "notification"
	EventEmergencyAlert = "emergency_alert"
	EventShiftUpdate    = "shift_update"
	EventLocationUpdate = "location_update"
)

type Notification struct {
	ID          int       `json:"id"`
	RecipientID int       `json:"recipient_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

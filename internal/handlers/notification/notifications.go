// internal/handlers/notification/notifications.go
package notification

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"

	"github.com/csma94/guard-sub008/internal/middleware"
	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
	"github.com/csma94/guard-sub008/internal/services/notify"
)

// ListNotificationsHandler returns the caller's notifications, newest first.
// Pass ?unread=true to only see unread ones.
func ListNotificationsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		query := `
			SELECT id, recipient_id, notif_type, title, COALESCE(body, ''), is_read, created_at
			FROM notifications
			WHERE recipient_id = $1`
		if r.URL.Query().Get("unread") == "true" {
			query += " AND is_read = FALSE"
		}
		query += " ORDER BY created_at DESC LIMIT 200"

		rows, err := db.Query(query, userID)
		if err != nil {
			log.Printf("DB error fetching notifications for user %d: %v", userID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		notifications := []models.Notification{}
		for rows.Next() {
			var n models.Notification
			if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
				log.Printf("Error scanning notification row: %v", err)
				continue
			}
			notifications = append(notifications, n)
		}

		response.RespondWithJSON(w, http.StatusOK, notifications)
	}
}

// MarkNotificationReadHandler marks one of the caller's notifications as read.
func MarkNotificationReadHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		notifID, err := strconv.Atoi(chi.URLParam(r, "notificationID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid notification ID")
			return
		}

		result, err := db.Exec(`
			UPDATE notifications SET is_read = TRUE
			WHERE id = $1 AND recipient_id = $2`, notifID, userID)
		if err != nil {
			log.Printf("DB error marking notification %d read: %v", notifID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			response.RespondWithError(w, http.StatusNotFound, "Notification not found")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
	}
}

// MarkAllReadHandler marks every notification of the caller as read.
func MarkAllReadHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		result, err := db.Exec(`
			UPDATE notifications SET is_read = TRUE
			WHERE recipient_id = $1 AND is_read = FALSE`, userID)
		if err != nil {
			log.Printf("DB error marking notifications read for user %d: %v", userID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		marked, _ := result.RowsAffected()
		response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"message": "All notifications marked as read",
			"marked":  marked,
		})
	}
}

type broadcastRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Roles     []string `json:"roles"`
	UserIDs   []int    `json:"user_ids"`
	Emergency bool     `json:"emergency"`
}

// BroadcastNotificationHandler persists a notification row per recipient and
// pushes the event over the websocket. Recipients come either from user_ids
// or from roles; omitting both targets everyone active.
func BroadcastNotificationHandler(db *sql.DB, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req broadcastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Title == "" {
			response.RespondWithError(w, http.StatusBadRequest, "Title is required")
			return
		}

		eventType := models.EventNotification
		if req.Emergency {
			eventType = models.EventEmergencyAlert
		}

		recipients, err := resolveRecipients(db, req.UserIDs, req.Roles)
		if err != nil {
			log.Printf("DB error resolving recipients: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if len(recipients) == 0 {
			response.RespondWithError(w, http.StatusBadRequest, "No matching recipients")
			return
		}

		tx, err := db.Begin()
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO notifications (recipient_id, notif_type, title, body)
			VALUES ($1, $2, $3, $4)`)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer stmt.Close()

		for _, id := range recipients {
			if _, err := stmt.Exec(id, eventType, req.Title, req.Body); err != nil {
				log.Printf("Failed to persist notification for user %d: %v", id, err)
				response.RespondWithError(w, http.StatusInternalServerError, "Failed to save notifications")
				return
			}
		}
		if err := tx.Commit(); err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		payload := map[string]interface{}{
			"title": req.Title,
			"body":  req.Body,
		}
		if len(req.UserIDs) > 0 {
			for _, id := range recipients {
				hub.SendToUser(eventType, payload, id)
			}
		} else if len(req.Roles) > 0 {
			hub.BroadcastToRoles(eventType, payload, req.Roles...)
		} else {
			hub.BroadcastEvent(eventType, payload)
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"message":    "Notification sent",
			"recipients": len(recipients),
		})
	}
}

func resolveRecipients(db *sql.DB, userIDs []int, roles []string) ([]int, error) {
	if len(userIDs) > 0 {
		var ids []int
		for _, id := range userIDs {
			var exists bool
			err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND status = 'active')", id).Scan(&exists)
			if err != nil {
				return nil, err
			}
			if exists {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}

	query := "SELECT id FROM users WHERE status = 'active'"
	var args []interface{}
	if len(roles) > 0 {
		query += " AND role = ANY($1)"
		args = append(args, pq.Array(roles))
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

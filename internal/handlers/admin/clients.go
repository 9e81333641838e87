// internal/handlers/admin/clients.go
package admin

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/csma94/guard-sub008/internal/pkg/response"
)

func ListClientsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query(`
			SELECT c.id, c.name, COALESCE(c.contact_email, ''), COALESCE(c.phone, ''), c.created_at,
			       (SELECT COUNT(*) FROM sites s WHERE s.client_id = c.id) AS site_count
			FROM clients c
			ORDER BY c.name`)
		if err != nil {
			log.Printf("DB error fetching clients: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		clients := []map[string]interface{}{}
		for rows.Next() {
			var (
				id, siteCount       int
				name, email, phone  string
				createdAt           time.Time
			)
			if err := rows.Scan(&id, &name, &email, &phone, &createdAt, &siteCount); err != nil {
				log.Printf("Error scanning client row: %v", err)
				continue
			}
			clients = append(clients, map[string]interface{}{
				"id":            id,
				"name":          name,
				"contact_email": email,
				"phone":         phone,
				"site_count":    siteCount,
				"created_at":    createdAt.Format(time.RFC3339),
			})
		}

		response.RespondWithJSON(w, http.StatusOK, clients)
	}
}

func CreateClientHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name         string `json:"name"`
			ContactEmail string `json:"contact_email"`
			Phone        string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Name == "" {
			response.RespondWithError(w, http.StatusBadRequest, "Client name is required")
			return
		}

		var id int
		err := db.QueryRow(`
			INSERT INTO clients (name, contact_email, phone)
			VALUES ($1, $2, $3)
			RETURNING id`,
			req.Name, req.ContactEmail, req.Phone,
		).Scan(&id)
		if err != nil {
			log.Printf("DB error creating client: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to create client")
			return
		}

		response.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "Client created successfully",
			"id":      id,
		})
	}
}

func DeleteClientHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := strconv.Atoi(chi.URLParam(r, "clientID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid client ID")
			return
		}

		var siteCount int
		if err := db.QueryRow("SELECT COUNT(*) FROM sites WHERE client_id = $1", clientID).Scan(&siteCount); err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if siteCount > 0 {
			response.RespondWithError(w, http.StatusConflict, "Client still owns sites")
			return
		}

		result, err := db.Exec("DELETE FROM clients WHERE id = $1", clientID)
		if err != nil {
			log.Printf("DB error deleting client %d: %v", clientID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to delete client")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			response.RespondWithError(w, http.StatusNotFound, "Client not found")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Client deleted successfully"})
	}
}

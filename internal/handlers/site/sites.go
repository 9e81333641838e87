// internal/handlers/site/sites.go
package site

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/csma94/guard-sub008/internal/middleware"
	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
)

// ListSitesHandler returns guarded sites. Client users are scoped to their
// own client id.
func ListSitesHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		var role string
		var clientID sql.NullInt64
		if err := db.QueryRow("SELECT role, client_id FROM users WHERE id = $1", userID).Scan(&role, &clientID); err != nil {
			log.Printf("DB error fetching role for user %d: %v", userID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to load user role")
			return
		}

		query := `
			SELECT s.id, s.client_id, c.name, s.name, COALESCE(s.address, ''), s.latitude, s.longitude,
			       s.geofence_radius_m, COALESCE(s.instructions, ''), s.is_active, s.created_at
			FROM sites s
			JOIN clients c ON c.id = s.client_id`

		var rows *sql.Rows
		var err error
		if role == "client" {
			if !clientID.Valid {
				response.RespondWithJSON(w, http.StatusOK, []models.Site{})
				return
			}
			rows, err = db.Query(query+" WHERE s.client_id = $1 ORDER BY s.id", clientID.Int64)
		} else {
			rows, err = db.Query(query + " ORDER BY s.id")
		}
		if err != nil {
			log.Printf("DB error fetching sites: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		sites := []models.Site{}
		for rows.Next() {
			var s models.Site
			err := rows.Scan(&s.ID, &s.ClientID, &s.ClientName, &s.Name, &s.Address, &s.Latitude,
				&s.Longitude, &s.GeofenceRadiusM, &s.Instructions, &s.IsActive, &s.CreatedAt)
			if err != nil {
				log.Printf("Error scanning site row: %v", err)
				continue
			}
			sites = append(sites, s)
		}

		response.RespondWithJSON(w, http.StatusOK, sites)
	}
}

func GetSiteHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID, err := strconv.Atoi(chi.URLParam(r, "siteID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid site ID")
			return
		}

		var s models.Site
		err = db.QueryRow(`
			SELECT s.id, s.client_id, c.name, s.name, COALESCE(s.address, ''), s.latitude, s.longitude,
			       s.geofence_radius_m, COALESCE(s.instructions, ''), s.is_active, s.created_at
			FROM sites s
			JOIN clients c ON c.id = s.client_id
			WHERE s.id = $1`, siteID).
			Scan(&s.ID, &s.ClientID, &s.ClientName, &s.Name, &s.Address, &s.Latitude,
				&s.Longitude, &s.GeofenceRadiusM, &s.Instructions, &s.IsActive, &s.CreatedAt)
		if err == sql.ErrNoRows {
			response.RespondWithError(w, http.StatusNotFound, "Site not found")
			return
		} else if err != nil {
			log.Printf("DB error fetching site %d: %v", siteID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, s)
	}
}

type siteRequest struct {
	ClientID        int     `json:"client_id"`
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	GeofenceRadiusM float64 `json:"geofence_radius_m"`
	Instructions    string  `json:"instructions"`
	IsActive        *bool   `json:"is_active"`
}

func (req *siteRequest) validate() string {
	if req.Name == "" {
		return "Site name is required"
	}
	if req.ClientID == 0 {
		return "client_id is required"
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return "Invalid coordinates"
	}
	return ""
}

func CreateSiteHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req siteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if msg := req.validate(); msg != "" {
			response.RespondWithError(w, http.StatusBadRequest, msg)
			return
		}
		if req.GeofenceRadiusM <= 0 {
			req.GeofenceRadiusM = 150
		}

		var clientExists int
		if err := db.QueryRow("SELECT COUNT(*) FROM clients WHERE id = $1", req.ClientID).Scan(&clientExists); err != nil || clientExists == 0 {
			response.RespondWithError(w, http.StatusBadRequest, "Client does not exist")
			return
		}

		var id int
		var createdAt time.Time
		err := db.QueryRow(`
			INSERT INTO sites (client_id, name, address, latitude, longitude, geofence_radius_m, instructions)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at`,
			req.ClientID, req.Name, req.Address, req.Latitude, req.Longitude, req.GeofenceRadiusM, req.Instructions,
		).Scan(&id, &createdAt)
		if err != nil {
			log.Printf("DB error creating site: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to create site")
			return
		}

		response.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "Site created successfully",
			"id":      id,
		})
	}
}

func UpdateSiteHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID, err := strconv.Atoi(chi.URLParam(r, "siteID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid site ID")
			return
		}

		var req siteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if msg := req.validate(); msg != "" {
			response.RespondWithError(w, http.StatusBadRequest, msg)
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		result, err := db.Exec(`
			UPDATE sites
			SET client_id = $1, name = $2, address = $3, latitude = $4, longitude = $5,
			    geofence_radius_m = $6, instructions = $7, is_active = $8
			WHERE id = $9`,
			req.ClientID, req.Name, req.Address, req.Latitude, req.Longitude,
			req.GeofenceRadiusM, req.Instructions, isActive, siteID,
		)
		if err != nil {
			log.Printf("DB error updating site %d: %v", siteID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to update site")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			response.RespondWithError(w, http.StatusNotFound, "Site not found")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Site updated successfully"})
	}
}

func DeleteSiteHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID, err := strconv.Atoi(chi.URLParam(r, "siteID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid site ID")
			return
		}

		var openShifts int
		if err := db.QueryRow(`
			SELECT COUNT(*) FROM shifts
			WHERE site_id = $1 AND status IN ('scheduled', 'in_progress')`, siteID).Scan(&openShifts); err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if openShifts > 0 {
			response.RespondWithError(w, http.StatusConflict, "Site has scheduled or running shifts")
			return
		}

		result, err := db.Exec("DELETE FROM sites WHERE id = $1", siteID)
		if err != nil {
			log.Printf("DB error deleting site %d: %v", siteID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to delete site")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			response.RespondWithError(w, http.StatusNotFound, "Site not found")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Site deleted successfully"})
	}
}

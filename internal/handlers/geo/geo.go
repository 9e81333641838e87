// internal/handlers/geo/geo.go
package geo

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/csma94/guard-sub008/internal/middleware"
	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
	geosvc "github.com/csma94/guard-sub008/internal/services/geo"
)

// PostGeoHandler accepts a position report from the mobile app. The agent ID
// always comes from the token, never the body.
func PostGeoHandler(svc *geosvc.GeoTrackService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		var update models.GeoUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if update.Lat < -90 || update.Lat > 90 || update.Lon < -180 || update.Lon > 180 {
			response.RespondWithError(w, http.StatusBadRequest, "Coordinates out of range")
			return
		}

		update.AgentID = agentID
		update.CreatedAt = time.Now().UTC()

		if err := svc.HandleUpdate(r.Context(), &update); err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to process position")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Position accepted"})
	}
}

// GetLastLocationsHandler returns the freshest position of every agent seen
// in the last five minutes.
func GetLastLocationsHandler(svc *geosvc.GeoTrackService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locations, err := svc.GetLastLocations(r.Context())
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch locations")
			return
		}
		if locations == nil {
			locations = []models.LastLocation{}
		}
		response.RespondWithJSON(w, http.StatusOK, locations)
	}
}

// GetHistoryHandler returns an agent's track between ?from and ?to
// (RFC3339); defaults to the last 24 hours.
func GetHistoryHandler(svc *geosvc.GeoTrackService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := strconv.Atoi(chi.URLParam(r, "agentID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid agent ID")
			return
		}

		to := time.Now()
		from := to.Add(-24 * time.Hour)
		if s := r.URL.Query().Get("from"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "from must be RFC3339")
				return
			}
			from = t
		}
		if s := r.URL.Query().Get("to"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "to must be RFC3339")
				return
			}
			to = t
		}
		if to.Before(from) {
			response.RespondWithError(w, http.StatusBadRequest, "to must not be before from")
			return
		}

		history, err := svc.GetHistory(r.Context(), agentID, from, to)
		if err != nil {
			log.Printf("Failed to fetch history for agent %d: %v", agentID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch history")
			return
		}
		if history == nil {
			history = []models.GeoUpdate{}
		}
		response.RespondWithJSON(w, http.StatusOK, history)
	}
}

// internal/handlers/incident/incidents.go
package incident

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/csma94/guard-sub008/internal/middleware"
	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
	"github.com/csma94/guard-sub008/internal/services/notify"
)

// NewIncidentReference builds a short human-readable incident number.
func NewIncidentReference(now time.Time) string {
	return fmt.Sprintf("INC-%s-%s", now.Format("20060102"), uuid.NewString()[:8])
}

const listIncidentsQuery = `
	SELECT i.id, i.reference, i.site_id, st.name, i.shift_id, COALESCE(i.reported_by, 0),
	       COALESCE(u.first_name || ' ' || u.last_name, u.username, ''),
	       i.title, COALESCE(i.description, ''), i.severity, i.status,
	       i.created_at, i.resolved_at, i.resolution_note
	FROM incidents i
	JOIN sites st ON st.id = i.site_id
	LEFT JOIN users u ON u.id = i.reported_by
`

func scanIncident(rows *sql.Rows) (models.Incident, error) {
	var (
		inc            models.Incident
		shiftID        sql.NullInt64
		resolvedAt     sql.NullTime
		resolutionNote sql.NullString
	)
	err := rows.Scan(&inc.ID, &inc.Reference, &inc.SiteID, &inc.SiteName, &shiftID, &inc.ReportedBy,
		&inc.ReporterName, &inc.Title, &inc.Description, &inc.Severity, &inc.Status,
		&inc.CreatedAt, &resolvedAt, &resolutionNote)
	if err != nil {
		return inc, err
	}
	if shiftID.Valid {
		id := int(shiftID.Int64)
		inc.ShiftID = &id
	}
	if resolvedAt.Valid {
		inc.ResolvedAt = &resolvedAt.Time
	}
	if resolutionNote.Valid {
		inc.ResolutionNote = resolutionNote.String
	}
	return inc, nil
}

// ListIncidentsHandler returns incidents filtered by ?status, ?severity and
// ?site_id. Agents see their own reports, clients only their sites.
func ListIncidentsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())
		_, claims, _ := jwtauth.FromContext(r.Context())
		role, _ := claims["role"].(string)

		query := listIncidentsQuery
		var conditions []string
		var args []interface{}
		arg := func(v interface{}) string {
			args = append(args, v)
			return fmt.Sprintf("$%d", len(args))
		}

		if status := r.URL.Query().Get("status"); status != "" {
			conditions = append(conditions, "i.status = "+arg(status))
		}
		if severity := r.URL.Query().Get("severity"); severity != "" {
			conditions = append(conditions, "i.severity = "+arg(severity))
		}
		if siteID := r.URL.Query().Get("site_id"); siteID != "" {
			id, err := strconv.Atoi(siteID)
			if err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "Invalid site_id")
				return
			}
			conditions = append(conditions, "i.site_id = "+arg(id))
		}

		switch role {
		case "agent":
			conditions = append(conditions, "i.reported_by = "+arg(userID))
		case "client":
			conditions = append(conditions,
				"st.client_id = (SELECT client_id FROM users WHERE id = "+arg(userID)+")")
		}

		for i, c := range conditions {
			if i == 0 {
				query += " WHERE " + c
			} else {
				query += " AND " + c
			}
		}
		query += " ORDER BY i.created_at DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			log.Printf("DB error fetching incidents: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		incidents := []models.Incident{}
		for rows.Next() {
			inc, err := scanIncident(rows)
			if err != nil {
				log.Printf("Error scanning incident row: %v", err)
				continue
			}
			incidents = append(incidents, inc)
		}

		response.RespondWithJSON(w, http.StatusOK, incidents)
	}
}

func GetIncidentHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		incidentID, err := strconv.Atoi(chi.URLParam(r, "incidentID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid incident ID")
			return
		}

		rows, err := db.Query(listIncidentsQuery+" WHERE i.id = $1", incidentID)
		if err != nil {
			log.Printf("DB error fetching incident %d: %v", incidentID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		if !rows.Next() {
			response.RespondWithError(w, http.StatusNotFound, "Incident not found")
			return
		}
		inc, err := scanIncident(rows)
		if err != nil {
			log.Printf("Error scanning incident row: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, inc)
	}
}

type incidentRequest struct {
	SiteID      int    `json:"site_id"`
	ShiftID     *int   `json:"shift_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// CreateIncidentHandler files a new incident. Critical incidents trigger an
// emergency_alert broadcast to staff and the affected client.
func CreateIncidentHandler(db *sql.DB, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		var req incidentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Title == "" || req.SiteID == 0 {
			response.RespondWithError(w, http.StatusBadRequest, "site_id and title are required")
			return
		}
		if !models.ValidSeverity(req.Severity) {
			response.RespondWithError(w, http.StatusBadRequest, "Severity must be one of: low, medium, high, critical")
			return
		}

		var siteName string
		err := db.QueryRow("SELECT name FROM sites WHERE id = $1", req.SiteID).Scan(&siteName)
		if err == sql.ErrNoRows {
			response.RespondWithError(w, http.StatusNotFound, "Site not found")
			return
		} else if err != nil {
			log.Printf("DB error checking site %d: %v", req.SiteID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if req.ShiftID != nil {
			var shiftExists bool
			err = db.QueryRow("SELECT EXISTS(SELECT 1 FROM shifts WHERE id = $1 AND site_id = $2)",
				*req.ShiftID, req.SiteID).Scan(&shiftExists)
			if err != nil || !shiftExists {
				response.RespondWithError(w, http.StatusBadRequest, "Shift does not exist at that site")
				return
			}
		}

		reference := NewIncidentReference(time.Now())
		var id int
		err = db.QueryRow(`
			INSERT INTO incidents (reference, site_id, shift_id, reported_by, title, description, severity, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'open')
			RETURNING id`,
			reference, req.SiteID, req.ShiftID, userID, req.Title, req.Description, req.Severity,
		).Scan(&id)
		if err != nil {
			log.Printf("DB error creating incident: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to create incident")
			return
		}

		payload := map[string]interface{}{
			"incident_id": id,
			"reference":   reference,
			"site_id":     req.SiteID,
			"site_name":   siteName,
			"title":       req.Title,
			"severity":    req.Severity,
		}
		if req.Severity == models.SeverityCritical {
			hub.BroadcastToRoles(models.EventEmergencyAlert, payload,
				"superadmin", "admin", "supervisor", "client")
		} else {
			hub.BroadcastToRoles(models.EventNotification, payload,
				"superadmin", "admin", "supervisor")
		}

		response.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"message":   "Incident reported",
			"id":        id,
			"reference": reference,
		})
	}
}

// ValidIncidentUpdateStatus limits the statuses the edit endpoint may set.
// Resolution has its own endpoint and is never reachable from here.
func ValidIncidentUpdateStatus(s string) bool {
	switch s {
	case models.IncidentOpen, models.IncidentInvestigating:
		return true
	}
	return false
}

// UpdateIncidentHandler edits an open incident, including moving it between
// 'open' and 'investigating'. Resolved incidents are frozen.
func UpdateIncidentHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		incidentID, err := strconv.Atoi(chi.URLParam(r, "incidentID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid incident ID")
			return
		}

		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Severity    string `json:"severity"`
			Status      string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Title == "" {
			response.RespondWithError(w, http.StatusBadRequest, "Title is required")
			return
		}
		if !models.ValidSeverity(req.Severity) {
			response.RespondWithError(w, http.StatusBadRequest, "Severity must be one of: low, medium, high, critical")
			return
		}
		if req.Status != "" && !ValidIncidentUpdateStatus(req.Status) {
			response.RespondWithError(w, http.StatusBadRequest, "Status must be 'open' or 'investigating'")
			return
		}

		var status string
		err = db.QueryRow("SELECT status FROM incidents WHERE id = $1", incidentID).Scan(&status)
		if err == sql.ErrNoRows {
			response.RespondWithError(w, http.StatusNotFound, "Incident not found")
			return
		} else if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if status == models.IncidentResolved {
			response.RespondWithError(w, http.StatusConflict, "Resolved incidents cannot be edited")
			return
		}
		if req.Status == "" {
			req.Status = status
		}

		_, err = db.Exec(`
			UPDATE incidents
			SET title = $1, description = $2, severity = $3, status = $4
			WHERE id = $5`,
			req.Title, req.Description, req.Severity, req.Status, incidentID,
		)
		if err != nil {
			log.Printf("DB error updating incident %d: %v", incidentID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to update incident")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Incident updated successfully"})
	}
}

// ResolveIncidentHandler closes an incident with a resolution note.
func ResolveIncidentHandler(db *sql.DB, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		incidentID, err := strconv.Atoi(chi.URLParam(r, "incidentID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid incident ID")
			return
		}

		var req struct {
			ResolutionNote string `json:"resolution_note"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.ResolutionNote == "" {
			response.RespondWithError(w, http.StatusBadRequest, "resolution_note is required")
			return
		}

		var reference string
		err = db.QueryRow(`
			UPDATE incidents
			SET status = 'resolved', resolved_at = NOW(), resolution_note = $1
			WHERE id = $2 AND status != 'resolved'
			RETURNING reference`,
			req.ResolutionNote, incidentID,
		).Scan(&reference)
		if err == sql.ErrNoRows {
			response.RespondWithError(w, http.StatusConflict, "Incident not found or already resolved")
			return
		} else if err != nil {
			log.Printf("DB error resolving incident %d: %v", incidentID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to resolve incident")
			return
		}

		hub.BroadcastToRoles(models.EventNotification, map[string]interface{}{
			"incident_id": incidentID,
			"reference":   reference,
			"status":      models.IncidentResolved,
		}, "superadmin", "admin", "supervisor", "client")

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Incident resolved"})
	}
}

func DeleteIncidentHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		incidentID, err := strconv.Atoi(chi.URLParam(r, "incidentID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid incident ID")
			return
		}

		result, err := db.Exec("DELETE FROM incidents WHERE id = $1", incidentID)
		if err != nil {
			log.Printf("DB error deleting incident %d: %v", incidentID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to delete incident")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			response.RespondWithError(w, http.StatusNotFound, "Incident not found")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Incident deleted successfully"})
	}
}

// internal/handlers/agent/agents.go
package agent

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/csma94/guard-sub008/internal/middleware"
	"github.com/csma94/guard-sub008/internal/pkg/response"
)

func scanAgentRow(rows *sql.Rows) (map[string]interface{}, error) {
	var (
		id                  int
		username, status    string
		firstName, lastName sql.NullString
		phone               sql.NullString
		employeeCode        sql.NullString
		certifications      sql.NullString
		createdAt           time.Time
	)
	err := rows.Scan(&id, &username, &firstName, &lastName, &phone, &status, &employeeCode, &certifications, &createdAt)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":             id,
		"username":       username,
		"first_name":     firstName.String,
		"last_name":      lastName.String,
		"phone":          phone.String,
		"status":         status,
		"employee_code":  employeeCode.String,
		"certifications": certifications.String,
		"created_at":     createdAt.Format(time.RFC3339),
	}, nil
}

// ListAgentsHandler returns the agent roster. Clients only see agents with
// shifts scheduled at their own sites.
func ListAgentsHandler(db *sql.DB) http.HandlerFunc {
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

		var rows *sql.Rows
		var err error
		if role == "client" {
			if !clientID.Valid {
				response.RespondWithJSON(w, http.StatusOK, []interface{}{})
				return
			}
			rows, err = db.Query(`
				SELECT DISTINCT u.id, u.username, u.first_name, u.last_name, u.phone, u.status, u.employee_code, u.certifications, u.created_at
				FROM users u
				JOIN shifts s ON s.agent_id = u.id
				JOIN sites st ON st.id = s.site_id
				WHERE u.role = 'agent' AND st.client_id = $1
				ORDER BY u.id`, clientID.Int64)
		} else {
			rows, err = db.Query(`
				SELECT id, username, first_name, last_name, phone, status, employee_code, certifications, created_at
				FROM users
				WHERE role = 'agent'
				ORDER BY id`)
		}
		if err != nil {
			log.Printf("DB error fetching agents: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		agents := []map[string]interface{}{}
		for rows.Next() {
			agent, err := scanAgentRow(rows)
			if err != nil {
				log.Printf("Error scanning agent row: %v", err)
				continue
			}
			agents = append(agents, agent)
		}

		response.RespondWithJSON(w, http.StatusOK, agents)
	}
}

func GetAgentHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := strconv.Atoi(chi.URLParam(r, "agentID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid agent ID")
			return
		}

		var (
			username, status    string
			firstName, lastName sql.NullString
			phone               sql.NullString
			employeeCode        sql.NullString
			certifications      sql.NullString
		)
		err = db.QueryRow(`
			SELECT username, first_name, last_name, phone, status, employee_code, certifications
			FROM users
			WHERE id = $1 AND role = 'agent'`, agentID).
			Scan(&username, &firstName, &lastName, &phone, &status, &employeeCode, &certifications)
		if err == sql.ErrNoRows {
			response.RespondWithError(w, http.StatusNotFound, "Agent not found")
			return
		} else if err != nil {
			log.Printf("DB error fetching agent %d: %v", agentID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"id":             agentID,
			"username":       username,
			"first_name":     firstName.String,
			"last_name":      lastName.String,
			"phone":          phone.String,
			"status":         status,
			"employee_code":  employeeCode.String,
			"certifications": certifications.String,
		})
	}
}

func UpdateAgentHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := strconv.Atoi(chi.URLParam(r, "agentID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid agent ID")
			return
		}

		var req struct {
			Phone          string `json:"phone"`
			EmployeeCode   string `json:"employee_code"`
			Certifications string `json:"certifications"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		result, err := db.Exec(`
			UPDATE users
			SET phone = $1, employee_code = $2, certifications = $3
			WHERE id = $4 AND role = 'agent'`,
			req.Phone, req.EmployeeCode, req.Certifications, agentID,
		)
		if err != nil {
			log.Printf("DB error updating agent %d: %v", agentID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to update agent")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			response.RespondWithError(w, http.StatusNotFound, "Agent not found")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Agent updated successfully"})
	}
}

// GetAgentShiftsHandler returns an agent's shift history. Agents may only
// read their own; staff may read anyone's.
func GetAgentShiftsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := strconv.Atoi(chi.URLParam(r, "agentID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid agent ID")
			return
		}

		currentUserID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		var currentRole string
		if err := db.QueryRow("SELECT role FROM users WHERE id = $1", currentUserID).Scan(&currentRole); err != nil {
			log.Printf("DB error fetching current user role: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to load user role")
			return
		}

		switch currentRole {
		case "admin", "superadmin", "supervisor":
		default:
			if currentUserID != targetID {
				response.RespondWithError(w, http.StatusForbidden, "Access denied")
				return
			}
		}

		rows, err := db.Query(`
			SELECT s.id, s.site_id, st.name, s.scheduled_start, s.scheduled_end,
			       s.actual_start, s.actual_end, s.status, s.worked_duration
			FROM shifts s
			JOIN sites st ON st.id = s.site_id
			WHERE s.agent_id = $1
			ORDER BY s.scheduled_start DESC`, targetID)
		if err != nil {
			log.Printf("DB error fetching shifts for agent %d: %v", targetID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to query shifts")
			return
		}
		defer rows.Close()

		shifts := []map[string]interface{}{}
		for rows.Next() {
			var (
				id, siteID               int
				siteName, status         string
				schedStart, schedEnd     time.Time
				actualStart, actualEnd   sql.NullTime
				workedDuration           sql.NullInt64
			)
			if err := rows.Scan(&id, &siteID, &siteName, &schedStart, &schedEnd, &actualStart, &actualEnd, &status, &workedDuration); err != nil {
				log.Printf("Error scanning shift row: %v", err)
				continue
			}
			shift := map[string]interface{}{
				"id":              id,
				"site_id":         siteID,
				"site_name":       siteName,
				"scheduled_start": schedStart.Format(time.RFC3339),
				"scheduled_end":   schedEnd.Format(time.RFC3339),
				"status":          status,
				"worked_time":     response.FormatDuration(int(workedDuration.Int64)),
			}
			if actualStart.Valid {
				shift["actual_start"] = actualStart.Time.Format(time.RFC3339)
			}
			if actualEnd.Valid {
				shift["actual_end"] = actualEnd.Time.Format(time.RFC3339)
			}
			shifts = append(shifts, shift)
		}

		response.RespondWithJSON(w, http.StatusOK, shifts)
	}
}

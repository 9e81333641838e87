// internal/handlers/shift/shifts.go
package shift

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/csma94/guard-sub008/internal/middleware"
	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
	"github.com/csma94/guard-sub008/internal/services/notify"
)

const listQuery = `
	SELECT s.id, s.agent_id, COALESCE(u.first_name || ' ' || u.last_name, u.username),
	       s.site_id, st.name, s.scheduled_start, s.scheduled_end,
	       s.actual_start, s.actual_end, s.status, COALESCE(s.notes, ''),
	       COALESCE(s.selfie_path, ''), COALESCE(s.worked_duration, 0), s.created_at
	FROM shifts s
	JOIN users u ON u.id = s.agent_id
	JOIN sites st ON st.id = s.site_id`

func scanShift(rows *sql.Rows) (models.Shift, error) {
	var s models.Shift
	var actualStart, actualEnd sql.NullTime
	err := rows.Scan(&s.ID, &s.AgentID, &s.AgentName, &s.SiteID, &s.SiteName,
		&s.ScheduledStart, &s.ScheduledEnd, &actualStart, &actualEnd,
		&s.Status, &s.Notes, &s.SelfiePath, &s.WorkedDuration, &s.CreatedAt)
	if err != nil {
		return s, err
	}
	if actualStart.Valid {
		t := actualStart.Time
		s.ActualStart = &t
	}
	if actualEnd.Valid {
		t := actualEnd.Time
		s.ActualEnd = &t
	}
	return s, nil
}

// ListShiftsHandler returns shifts filtered by the query string: date,
// from/to, agent_id, site_id, status. Clients are scoped to their sites,
// agents to their own shifts.
func ListShiftsHandler(db *sql.DB) http.HandlerFunc {
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

		where := []string{}
		args := []interface{}{}
		arg := func(v interface{}) string {
			args = append(args, v)
			return fmt.Sprintf("$%d", len(args))
		}

		q := r.URL.Query()
		if dateStr := q.Get("date"); dateStr != "" {
			day, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
				return
			}
			where = append(where, "s.scheduled_start >= "+arg(day)+" AND s.scheduled_start < "+arg(day.AddDate(0, 0, 1)))
		}
		if fromStr := q.Get("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "Invalid from date")
				return
			}
			where = append(where, "s.scheduled_start >= "+arg(from))
		}
		if toStr := q.Get("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "Invalid to date")
				return
			}
			where = append(where, "s.scheduled_start < "+arg(to.AddDate(0, 0, 1)))
		}
		if agentStr := q.Get("agent_id"); agentStr != "" {
			agentID, err := strconv.Atoi(agentStr)
			if err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "Invalid agent_id")
				return
			}
			where = append(where, "s.agent_id = "+arg(agentID))
		}
		if siteStr := q.Get("site_id"); siteStr != "" {
			siteID, err := strconv.Atoi(siteStr)
			if err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "Invalid site_id")
				return
			}
			where = append(where, "s.site_id = "+arg(siteID))
		}
		if status := q.Get("status"); status != "" {
			where = append(where, "s.status = "+arg(status))
		}

		switch role {
		case "agent":
			where = append(where, "s.agent_id = "+arg(userID))
		case "client":
			if !clientID.Valid {
				response.RespondWithJSON(w, http.StatusOK, []models.Shift{})
				return
			}
			where = append(where, "st.client_id = "+arg(clientID.Int64))
		}

		query := listQuery
		for i, cond := range where {
			if i == 0 {
				query += " WHERE " + cond
			} else {
				query += " AND " + cond
			}
		}
		query += " ORDER BY s.scheduled_start DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			log.Printf("DB error fetching shifts: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		shifts := []models.Shift{}
		for rows.Next() {
			s, err := scanShift(rows)
			if err != nil {
				log.Printf("Error scanning shift row: %v", err)
				continue
			}
			shifts = append(shifts, s)
		}

		response.RespondWithJSON(w, http.StatusOK, shifts)
	}
}

// GetActiveShiftsHandler returns every running shift for the admin map view.
func GetActiveShiftsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query(listQuery + " WHERE s.status = 'in_progress'")
		if err != nil {
			log.Printf("DB error fetching active shifts: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		shifts := []models.Shift{}
		for rows.Next() {
			s, err := scanShift(rows)
			if err != nil {
				log.Printf("Error scanning active shift row: %v", err)
				continue
			}
			shifts = append(shifts, s)
		}

		response.RespondWithJSON(w, http.StatusOK, shifts)
	}
}

// GetMyActiveShiftHandler returns the caller's running shift, or null.
func GetMyActiveShiftHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		rows, err := db.Query(listQuery+" WHERE s.agent_id = $1 AND s.status = 'in_progress' LIMIT 1", userID)
		if err != nil {
			log.Printf("DB error fetching active shift for agent %d: %v", userID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		if !rows.Next() {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte("null"))
			return
		}

		s, err := scanShift(rows)
		if err != nil {
			log.Printf("Error scanning active shift: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, s)
	}
}

// SchedulesOverlap mirrors the half-open interval test the overlap guard
// runs in SQL: shifts that only touch at an endpoint do not conflict.
func SchedulesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// countOverlappingShifts counts the agent's scheduled or running shifts that
// collide with [start, end). excludeShiftID skips the shift being edited;
// pass 0 when creating.
func countOverlappingShifts(db *sql.DB, agentID, excludeShiftID int, start, end time.Time) (int, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM shifts
		WHERE agent_id = $1 AND id != $2 AND status IN ('scheduled', 'in_progress')
		  AND scheduled_start < $4 AND scheduled_end > $3`,
		agentID, excludeShiftID, start, end).Scan(&n)
	return n, err
}

type shiftRequest struct {
	AgentID        int    `json:"agent_id"`
	SiteID         int    `json:"site_id"`
	ScheduledStart string `json:"scheduled_start"`
	ScheduledEnd   string `json:"scheduled_end"`
	Notes          string `json:"notes"`
}

func CreateShiftHandler(db *sql.DB, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, _ := middleware.GetUserIDFromContext(r.Context())

		var req shiftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		start, err := time.Parse(time.RFC3339, req.ScheduledStart)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid scheduled_start, expected RFC3339")
			return
		}
		end, err := time.Parse(time.RFC3339, req.ScheduledEnd)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid scheduled_end, expected RFC3339")
			return
		}
		if !end.After(start) {
			response.RespondWithError(w, http.StatusBadRequest, "scheduled_end must be after scheduled_start")
			return
		}

		var agentExists int
		if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE id = $1 AND role = 'agent'", req.AgentID).Scan(&agentExists); err != nil || agentExists == 0 {
			response.RespondWithError(w, http.StatusBadRequest, "Agent does not exist")
			return
		}
		var siteExists int
		if err := db.QueryRow("SELECT COUNT(*) FROM sites WHERE id = $1 AND is_active", req.SiteID).Scan(&siteExists); err != nil || siteExists == 0 {
			response.RespondWithError(w, http.StatusBadRequest, "Site does not exist or is inactive")
			return
		}

		// Plain overlap guard; anything smarter belongs to a human planner.
		overlapping, err := countOverlappingShifts(db, req.AgentID, 0, start, end)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if overlapping > 0 {
			response.RespondWithError(w, http.StatusConflict, "Agent already has a shift in that window")
			return
		}

		var id int
		err = db.QueryRow(`
			INSERT INTO shifts (agent_id, site_id, scheduled_start, scheduled_end, notes, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			req.AgentID, req.SiteID, start, end, req.Notes, creatorID,
		).Scan(&id)
		if err != nil {
			log.Printf("DB error creating shift: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to create shift")
			return
		}

		hub.BroadcastEvent(models.EventShiftUpdate, map[string]interface{}{
			"shift_id": id,
			"agent_id": req.AgentID,
			"status":   models.ShiftScheduled,
		})

		response.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "Shift created successfully",
			"id":      id,
		})
	}
}

func UpdateShiftHandler(db *sql.DB, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shiftID, err := strconv.Atoi(chi.URLParam(r, "shiftID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid shift ID")
			return
		}

		var req struct {
			ScheduledStart string `json:"scheduled_start"`
			ScheduledEnd   string `json:"scheduled_end"`
			Notes          string `json:"notes"`
			Status         string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		var currentStatus string
		var agentID int
		err = db.QueryRow("SELECT status, agent_id FROM shifts WHERE id = $1", shiftID).Scan(&currentStatus, &agentID)
		if err == sql.ErrNoRows {
			response.RespondWithError(w, http.StatusNotFound, "Shift not found")
			return
		} else if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if currentStatus != models.ShiftScheduled {
			response.RespondWithError(w, http.StatusBadRequest, "Only scheduled shifts can be edited")
			return
		}

		if req.Status != "" && req.Status != models.ShiftCancelled {
			response.RespondWithError(w, http.StatusBadRequest, "Status can only be set to 'cancelled'")
			return
		}

		if req.Status == models.ShiftCancelled {
			if _, err := db.Exec("UPDATE shifts SET status = 'cancelled' WHERE id = $1", shiftID); err != nil {
				response.RespondWithError(w, http.StatusInternalServerError, "Failed to cancel shift")
				return
			}
			hub.BroadcastEvent(models.EventShiftUpdate, map[string]interface{}{
				"shift_id": shiftID,
				"agent_id": agentID,
				"status":   models.ShiftCancelled,
			})
			response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Shift cancelled"})
			return
		}

		start, err := time.Parse(time.RFC3339, req.ScheduledStart)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid scheduled_start, expected RFC3339")
			return
		}
		end, err := time.Parse(time.RFC3339, req.ScheduledEnd)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid scheduled_end, expected RFC3339")
			return
		}
		if !end.After(start) {
			response.RespondWithError(w, http.StatusBadRequest, "scheduled_end must be after scheduled_start")
			return
		}

		// Rescheduling must not double-book the agent either.
		overlapping, err := countOverlappingShifts(db, agentID, shiftID, start, end)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if overlapping > 0 {
			response.RespondWithError(w, http.StatusConflict, "Agent already has a shift in that window")
			return
		}

		_, err = db.Exec(`
			UPDATE shifts
			SET scheduled_start = $1, scheduled_end = $2, notes = $3
			WHERE id = $4`,
			start, end, req.Notes, shiftID,
		)
		if err != nil {
			log.Printf("DB error updating shift %d: %v", shiftID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to update shift")
			return
		}

		hub.BroadcastEvent(models.EventShiftUpdate, map[string]interface{}{
			"shift_id": shiftID,
			"agent_id": agentID,
			"status":   models.ShiftScheduled,
		})

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Shift updated successfully"})
	}
}

func DeleteShiftHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shiftID, err := strconv.Atoi(chi.URLParam(r, "shiftID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid shift ID")
			return
		}

		result, err := db.Exec(`
			DELETE FROM shifts
			WHERE id = $1 AND status IN ('scheduled', 'cancelled')`, shiftID)
		if err != nil {
			log.Printf("DB error deleting shift %d: %v", shiftID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to delete shift")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			response.RespondWithError(w, http.StatusConflict, "Shift not found or already started")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Shift deleted successfully"})
	}
}

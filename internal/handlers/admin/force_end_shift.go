// internal/handlers/admin/force_end_shift.go
package admin

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
	"github.com/csma94/guard-sub008/internal/services/notify"
)

// ForceEndShiftHandler lets an admin close an agent's running shift.
func ForceEndShiftHandler(db *sql.DB, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentIDStr := chi.URLParam(r, "userID")
		agentID, err := strconv.Atoi(agentIDStr)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		var shiftID int
		var actualStart time.Time
		err = db.QueryRow(`
			SELECT id, actual_start
			FROM shifts
			WHERE agent_id = $1 AND status = 'in_progress'
		`, agentID).Scan(&shiftID, &actualStart)
		if err == sql.ErrNoRows {
			response.RespondWithError(w, http.StatusNotFound, "No active shift found for the user")
			return
		} else if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		endTime := time.Now()
		duration := int(endTime.Sub(actualStart).Seconds())

		_, err = db.Exec(`
			UPDATE shifts
			SET actual_end = $1, status = 'completed', worked_duration = $2
			WHERE id = $3
		`, endTime, duration, shiftID)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		hub.BroadcastEvent(models.EventShiftUpdate, map[string]interface{}{
			"shift_id": shiftID,
			"agent_id": agentID,
			"status":   models.ShiftCompleted,
			"forced":   true,
		})

		response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"message":     "Shift ended",
			"worked_time": response.FormatDuration(duration),
		})
	}
}

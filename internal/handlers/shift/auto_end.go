// internal/handlers/shift/auto_end.go
package shift

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
	"github.com/csma94/guard-sub008/internal/services/notify"
)

// Shifts still running this long past their scheduled end are closed
// automatically.
const autoEndGrace = 15 * time.Minute

// AutoEndShifts closes overrunning shifts and marks never-started ones as
// missed. Returns how many shifts were auto-completed.
func AutoEndShifts(db *sql.DB, hub *notify.Hub) (int, error) {
	rows, err := db.Query(`
		SELECT id, agent_id, actual_start, scheduled_end
		FROM shifts
		WHERE status = 'in_progress' AND scheduled_end < $1
	`, time.Now().Add(-autoEndGrace))
	if err != nil {
		log.Printf("DB query error (overrunning shifts): %v", err)
		return 0, err
	}
	defer rows.Close()

	type overrun struct {
		ID, AgentID  int
		ActualStart  time.Time
		ScheduledEnd time.Time
	}
	var toEnd []overrun

	for rows.Next() {
		var o overrun
		if err := rows.Scan(&o.ID, &o.AgentID, &o.ActualStart, &o.ScheduledEnd); err != nil {
			log.Printf("Error scanning overrunning shift: %v", err)
			continue
		}
		toEnd = append(toEnd, o)
	}
	if err = rows.Err(); err != nil {
		log.Printf("Row iteration error: %v", err)
		return 0, err
	}

	ended := 0
	for _, o := range toEnd {
		// Credit worked time up to the scheduled end, not the grace window.
		duration := int(o.ScheduledEnd.Sub(o.ActualStart).Seconds())
		_, err := db.Exec(`
			UPDATE shifts
			SET status = 'completed', actual_end = $1, worked_duration = $2
			WHERE id = $3 AND status = 'in_progress'`,
			o.ScheduledEnd, duration, o.ID,
		)
		if err != nil {
			log.Printf("Failed to auto-end shift %d: %v", o.ID, err)
			continue
		}
		ended++
		hub.BroadcastEvent(models.EventShiftUpdate, map[string]interface{}{
			"shift_id":   o.ID,
			"agent_id":   o.AgentID,
			"status":     models.ShiftCompleted,
			"auto_ended": true,
		})
	}

	// Scheduled shifts nobody ever started are missed once their window
	// has passed.
	result, err := db.Exec(`
		UPDATE shifts
		SET status = 'missed'
		WHERE status = 'scheduled' AND scheduled_end < NOW()`)
	if err != nil {
		log.Printf("Failed to mark missed shifts: %v", err)
	} else if missed, _ := result.RowsAffected(); missed > 0 {
		log.Printf("Marked %d shifts as missed", missed)
	}

	return ended, nil
}

// AutoEndShiftsHandler triggers the sweep on demand.
func AutoEndShiftsHandler(db *sql.DB, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ended, err := AutoEndShifts(db, hub)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to process auto-end shifts")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"message":      "Auto-end shifts completed",
			"shifts_ended": ended,
			"processed_at": time.Now().Format(time.RFC3339),
		})
	}
}

// internal/handlers/shift/clock.go
package shift

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/csma94/guard-sub008/internal/middleware"
	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
	"github.com/csma94/guard-sub008/internal/services/geo"
	"github.com/csma94/guard-sub008/internal/services/notify"
)

// Agents may clock in starting 20 minutes before the scheduled start.
const clockInLeeway = 20 * time.Minute

// CanClockIn reports whether the clock-in window is open.
func CanClockIn(now, scheduledStart, scheduledEnd time.Time) bool {
	return !now.Before(scheduledStart.Add(-clockInLeeway)) && now.Before(scheduledEnd)
}

// ClockInDenial returns the reason a clock-in must be rejected, or "" when
// the agent may start: the shift must still be scheduled, the window must be
// open, and the agent must not be running another shift already.
func ClockInDenial(now, scheduledStart, scheduledEnd time.Time, status string, activeCount int) string {
	if status != models.ShiftScheduled {
		return "Shift is not in scheduled state"
	}
	if !CanClockIn(now, scheduledStart, scheduledEnd) {
		return "Clock-in allowed from 20 minutes before the scheduled start until the scheduled end"
	}
	if activeCount > 0 {
		return "Another shift is already in progress"
	}
	return ""
}

func generateSelfieFilename(agentID int, ext string) string {
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Sprintf("selfie_%d_%d%s", agentID, time.Now().UnixNano(), ext)
	}
	return fmt.Sprintf("selfie_%d_%x%s", agentID, randomBytes, ext)
}

// ClockInHandler starts a scheduled shift. The request is multipart: lat and
// lng form values plus a JPEG/PNG selfie, and the reported position must lie
// inside the site geofence.
func ClockInHandler(db *sql.DB, hub *notify.Hub, uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		shiftID, err := strconv.Atoi(chi.URLParam(r, "shiftID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid shift ID")
			return
		}

		var (
			shiftAgentID             int
			status                   string
			schedStart, schedEnd     time.Time
			siteLat, siteLon, radius float64
		)
		err = db.QueryRow(`
			SELECT s.agent_id, s.status, s.scheduled_start, s.scheduled_end,
			       st.latitude, st.longitude, st.geofence_radius_m
			FROM shifts s
			JOIN sites st ON st.id = s.site_id
			WHERE s.id = $1`, shiftID).
			Scan(&shiftAgentID, &status, &schedStart, &schedEnd, &siteLat, &siteLon, &radius)
		if err == sql.ErrNoRows {
			response.RespondWithError(w, http.StatusNotFound, "Shift not found")
			return
		} else if err != nil {
			log.Printf("DB error fetching shift %d: %v", shiftID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if shiftAgentID != agentID {
			response.RespondWithError(w, http.StatusForbidden, "Shift belongs to another agent")
			return
		}
		var activeCount int
		err = db.QueryRow("SELECT COUNT(*) FROM shifts WHERE agent_id = $1 AND status = 'in_progress'", agentID).Scan(&activeCount)
		if err != nil {
			log.Printf("DB error checking active shifts for agent %d: %v", agentID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if reason := ClockInDenial(time.Now(), schedStart, schedEnd, status, activeCount); reason != "" {
			response.RespondWithError(w, http.StatusBadRequest, reason)
			return
		}

		if err := r.ParseMultipartForm(5 << 20); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "File too large or malformed")
			return
		}

		lat, err := strconv.ParseFloat(r.FormValue("lat"), 64)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Missing or invalid lat")
			return
		}
		lng, err := strconv.ParseFloat(r.FormValue("lng"), 64)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Missing or invalid lng")
			return
		}

		if !geo.WithinGeofence(lat, lng, siteLat, siteLon, radius) {
			distance := geo.DistanceMeters(lat, lng, siteLat, siteLon)
			response.RespondWithError(w, http.StatusBadRequest,
				fmt.Sprintf("Outside the site geofence: %.0fm from the site, allowed %.0fm", distance, radius))
			return
		}

		file, _, err := r.FormFile("selfie")
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Selfie image is required")
			return
		}
		defer file.Close()

		buff := make([]byte, 512)
		if _, err = file.Read(buff); err != nil && err != io.EOF {
			response.RespondWithError(w, http.StatusInternalServerError, "Error reading file")
			return
		}
		contentType := http.DetectContentType(buff)
		if contentType != "image/jpeg" && contentType != "image/png" {
			response.RespondWithError(w, http.StatusBadRequest, "Only JPEG and PNG images allowed")
			return
		}

		file.Seek(0, 0)
		ext := ".jpg"
		if contentType == "image/png" {
			ext = ".png"
		}

		filename := generateSelfieFilename(agentID, ext)
		selfieDir := filepath.Join(uploadDir, "selfies")
		if err := os.MkdirAll(selfieDir, 0755); err != nil {
			log.Printf("Failed to create uploads dir: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Server error")
			return
		}

		fullPath := filepath.Join(selfieDir, filename)
		out, err := os.Create(fullPath)
		if err != nil {
			log.Printf("Failed to create file %s: %v", fullPath, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Server error")
			return
		}
		defer out.Close()

		if _, err = io.Copy(out, file); err != nil {
			os.Remove(fullPath)
			log.Printf("Failed to save selfie for agent %d: %v", agentID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to save image")
			return
		}

		selfieURL := "/uploads/selfies/" + filename
		startTime := time.Now()
		_, err = db.Exec(`
			UPDATE shifts
			SET status = 'in_progress', actual_start = $1, selfie_path = $2
			WHERE id = $3`,
			startTime, selfieURL, shiftID,
		)
		if err != nil {
			os.Remove(fullPath)
			log.Printf("DB error clocking in shift %d: %v", shiftID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		hub.BroadcastEvent(models.EventShiftUpdate, map[string]interface{}{
			"shift_id": shiftID,
			"agent_id": agentID,
			"status":   models.ShiftInProgress,
		})

		response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"message":    "Clocked in",
			"shift_id":   shiftID,
			"selfie":     selfieURL,
			"start_time": startTime.Format(time.RFC3339),
		})
	}
}

func ClockOutHandler(db *sql.DB, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		shiftID, err := strconv.Atoi(chi.URLParam(r, "shiftID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid shift ID")
			return
		}

		var actualStart time.Time
		err = db.QueryRow(`
			SELECT actual_start FROM shifts
			WHERE id = $1 AND agent_id = $2 AND status = 'in_progress'`,
			shiftID, agentID).Scan(&actualStart)
		if err == sql.ErrNoRows {
			response.RespondWithError(w, http.StatusBadRequest, "No running shift with that ID")
			return
		} else if err != nil {
			log.Printf("DB error fetching shift %d: %v", shiftID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		endTime := time.Now()
		duration := int(endTime.Sub(actualStart).Seconds())

		_, err = db.Exec(`
			UPDATE shifts
			SET status = 'completed', actual_end = $1, worked_duration = $2
			WHERE id = $3`,
			endTime, duration, shiftID,
		)
		if err != nil {
			log.Printf("DB error clocking out shift %d: %v", shiftID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		hub.BroadcastEvent(models.EventShiftUpdate, map[string]interface{}{
			"shift_id": shiftID,
			"agent_id": agentID,
			"status":   models.ShiftCompleted,
		})

		response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"message":     "Clocked out",
			"worked_time": response.FormatDuration(duration),
		})
	}
}

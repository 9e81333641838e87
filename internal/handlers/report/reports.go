// internal/handlers/report/reports.go
package report

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
)

// NewReportReference builds a short human-readable report number.
func NewReportReference(now time.Time) string {
	return fmt.Sprintf("RPT-%s-%s", now.Format("20060102"), uuid.NewString()[:8])
}

const listReportsQuery = `
	SELECT r.id, r.reference, r.shift_id, r.agent_id,
	       COALESCE(u.first_name || ' ' || u.last_name, u.username),
	       r.report_type, r.status, r.title, COALESCE(r.content, ''),
	       r.review_note, r.reviewed_by, r.submitted_at, r.reviewed_at, r.created_at
	FROM reports r
	JOIN users u ON u.id = r.agent_id
`

func scanReport(rows *sql.Rows) (models.Report, error) {
	var (
		rep                    models.Report
		shiftID, reviewedBy    sql.NullInt64
		reviewNote             sql.NullString
		submittedAt, reviewedAt sql.NullTime
	)
	err := rows.Scan(&rep.ID, &rep.Reference, &shiftID, &rep.AgentID, &rep.AgentName,
		&rep.ReportType, &rep.Status, &rep.Title, &rep.Content,
		&reviewNote, &reviewedBy, &submittedAt, &reviewedAt, &rep.CreatedAt)
	if err != nil {
		return rep, err
	}
	if shiftID.Valid {
		id := int(shiftID.Int64)
		rep.ShiftID = &id
	}
	if reviewedBy.Valid {
		id := int(reviewedBy.Int64)
		rep.ReviewedBy = &id
	}
	if reviewNote.Valid {
		rep.ReviewNote = reviewNote.String
	}
	if submittedAt.Valid {
		rep.SubmittedAt = &submittedAt.Time
	}
	if reviewedAt.Valid {
		rep.ReviewedAt = &reviewedAt.Time
	}
	return rep, nil
}

// ListReportsHandler returns reports filtered by ?status, ?agent_id and
// ?report_type. Agents see only their own; clients see submitted-or-later
// reports tied to shifts at their sites.
func ListReportsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())
		_, claims, _ := jwtauth.FromContext(r.Context())
		role, _ := claims["role"].(string)

		query := listReportsQuery
		var conditions []string
		var args []interface{}
		arg := func(v interface{}) string {
			args = append(args, v)
			return fmt.Sprintf("$%d", len(args))
		}

		if status := r.URL.Query().Get("status"); status != "" {
			conditions = append(conditions, "r.status = "+arg(status))
		}
		if reportType := r.URL.Query().Get("report_type"); reportType != "" {
			conditions = append(conditions, "r.report_type = "+arg(reportType))
		}
		if agentID := r.URL.Query().Get("agent_id"); agentID != "" {
			id, err := strconv.Atoi(agentID)
			if err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "Invalid agent_id")
				return
			}
			conditions = append(conditions, "r.agent_id = "+arg(id))
		}

		switch role {
		case "agent":
			conditions = append(conditions, "r.agent_id = "+arg(userID))
		case "client":
			conditions = append(conditions, "r.status != 'draft'")
			conditions = append(conditions, `r.shift_id IN (
				SELECT sh.id FROM shifts sh
				JOIN sites st ON st.id = sh.site_id
				WHERE st.client_id = (SELECT client_id FROM users WHERE id = `+arg(userID)+`))`)
		}

		for i, c := range conditions {
			if i == 0 {
				query += " WHERE " + c
			} else {
				query += " AND " + c
			}
		}
		query += " ORDER BY r.created_at DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			log.Printf("DB error fetching reports: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		reports := []models.Report{}
		for rows.Next() {
			rep, err := scanReport(rows)
			if err != nil {
				log.Printf("Error scanning report row: %v", err)
				continue
			}
			reports = append(reports, rep)
		}

		response.RespondWithJSON(w, http.StatusOK, reports)
	}
}

func GetReportHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reportID, err := strconv.Atoi(chi.URLParam(r, "reportID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid report ID")
			return
		}

		rows, err := db.Query(listReportsQuery+" WHERE r.id = $1", reportID)
		if err != nil {
			log.Printf("DB error fetching report %d: %v", reportID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		if !rows.Next() {
			response.RespondWithError(w, http.StatusNotFound, "Report not found")
			return
		}
		rep, err := scanReport(rows)
		if err != nil {
			log.Printf("Error scanning report row: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		_, claims, _ := jwtauth.FromContext(r.Context())
		role, _ := claims["role"].(string)
		userID, _ := middleware.GetUserIDFromContext(r.Context())
		if role == "agent" && rep.AgentID != userID {
			response.RespondWithError(w, http.StatusForbidden, "Report belongs to another agent")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, rep)
	}
}

type reportRequest struct {
	ShiftID    *int   `json:"shift_id"`
	ReportType string `json:"report_type"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

func validReportType(t string) bool {
	switch t {
	case "patrol", "incident_followup", "maintenance", "other":
		return true
	}
	return false
}

// CreateReportHandler files a new draft report for the calling agent.
func CreateReportHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		var req reportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Title == "" {
			response.RespondWithError(w, http.StatusBadRequest, "Title is required")
			return
		}
		if req.ReportType == "" {
			req.ReportType = "patrol"
		}
		if !validReportType(req.ReportType) {
			response.RespondWithError(w, http.StatusBadRequest, "report_type must be one of: patrol, incident_followup, maintenance, other")
			return
		}

		if req.ShiftID != nil {
			var shiftAgent int
			err := db.QueryRow("SELECT agent_id FROM shifts WHERE id = $1", *req.ShiftID).Scan(&shiftAgent)
			if err == sql.ErrNoRows {
				response.RespondWithError(w, http.StatusNotFound, "Shift not found")
				return
			} else if err != nil {
				response.RespondWithError(w, http.StatusInternalServerError, "Database error")
				return
			}
			if shiftAgent != userID {
				response.RespondWithError(w, http.StatusForbidden, "Shift belongs to another agent")
				return
			}
		}

		reference := NewReportReference(time.Now())
		var id int
		err := db.QueryRow(`
			INSERT INTO reports (reference, shift_id, agent_id, report_type, status, title, content)
			VALUES ($1, $2, $3, $4, 'draft', $5, $6)
			RETURNING id`,
			reference, req.ShiftID, userID, req.ReportType, req.Title, req.Content,
		).Scan(&id)
		if err != nil {
			log.Printf("DB error creating report: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to create report")
			return
		}

		response.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"message":   "Report created",
			"id":        id,
			"reference": reference,
		})
	}
}

// UpdateReportHandler edits a report. Only the owning agent may edit, and
// only while the report is a draft or was rejected.
func UpdateReportHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		reportID, err := strconv.Atoi(chi.URLParam(r, "reportID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid report ID")
			return
		}

		var req reportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Title == "" {
			response.RespondWithError(w, http.StatusBadRequest, "Title is required")
			return
		}

		var agentID int
		var status string
		err = db.QueryRow("SELECT agent_id, status FROM reports WHERE id = $1", reportID).Scan(&agentID, &status)
		if err == sql.ErrNoRows {
			response.RespondWithError(w, http.StatusNotFound, "Report not found")
			return
		} else if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if agentID != userID {
			response.RespondWithError(w, http.StatusForbidden, "Report belongs to another agent")
			return
		}
		if status != models.ReportDraft && status != models.ReportRejected {
			response.RespondWithError(w, http.StatusConflict, "Only draft or rejected reports can be edited")
			return
		}

		_, err = db.Exec(`
			UPDATE reports
			SET title = $1, content = $2, status = 'draft', review_note = NULL
			WHERE id = $3`,
			req.Title, req.Content, reportID,
		)
		if err != nil {
			log.Printf("DB error updating report %d: %v", reportID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to update report")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Report updated successfully"})
	}
}

// SubmitReportHandler moves a draft report to submitted.
func SubmitReportHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		reportID, err := strconv.Atoi(chi.URLParam(r, "reportID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid report ID")
			return
		}

		result, err := db.Exec(`
			UPDATE reports
			SET status = 'submitted', submitted_at = NOW()
			WHERE id = $1 AND agent_id = $2 AND status = 'draft'`,
			reportID, userID,
		)
		if err != nil {
			log.Printf("DB error submitting report %d: %v", reportID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to submit report")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			response.RespondWithError(w, http.StatusConflict, "Report not found, not yours, or not a draft")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Report submitted"})
	}
}

// ReviewReportHandler approves or rejects a submitted report. Rejection
// requires a review note so the agent knows what to fix.
func ReviewReportHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reviewerID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		reportID, err := strconv.Atoi(chi.URLParam(r, "reportID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid report ID")
			return
		}

		var req struct {
			Decision   string `json:"decision"`
			ReviewNote string `json:"review_note"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		var newStatus string
		switch req.Decision {
		case "approve":
			newStatus = models.ReportApproved
		case "reject":
			if req.ReviewNote == "" {
				response.RespondWithError(w, http.StatusBadRequest, "review_note is required when rejecting")
				return
			}
			newStatus = models.ReportRejected
		default:
			response.RespondWithError(w, http.StatusBadRequest, "Decision must be approve or reject")
			return
		}

		result, err := db.Exec(`
			UPDATE reports
			SET status = $1, review_note = NULLIF($2, ''), reviewed_by = $3, reviewed_at = NOW()
			WHERE id = $4 AND status = 'submitted'`,
			newStatus, req.ReviewNote, reviewerID, reportID,
		)
		if err != nil {
			log.Printf("DB error reviewing report %d: %v", reportID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to review report")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			response.RespondWithError(w, http.StatusConflict, "Report not found or not awaiting review")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Report " + newStatus})
	}
}

// DeleteReportHandler removes a draft report. Submitted and reviewed reports
// stay for the audit trail.
func DeleteReportHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		reportID, err := strconv.Atoi(chi.URLParam(r, "reportID"))
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid report ID")
			return
		}

		result, err := db.Exec(`
			DELETE FROM reports WHERE id = $1 AND agent_id = $2 AND status = 'draft'`,
			reportID, userID,
		)
		if err != nil {
			log.Printf("DB error deleting report %d: %v", reportID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to delete report")
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			response.RespondWithError(w, http.StatusConflict, "Report not found, not yours, or already submitted")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Report deleted successfully"})
	}
}

// internal/handlers/report/export.go
package report

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/csma94/guard-sub008/internal/pkg/response"
)

type exportRow struct {
	Reference  string
	AgentName  string
	ReportType string
	Status     string
	Title      string
	Submitted  string
	Reviewed   string
}

var reportExportHeader = []string{"Reference", "Agent", "Type", "Status", "Title", "Submitted", "Reviewed"}

func buildReportsWorkbook(rows []exportRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Reports"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range reportExportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, h)
	}
	for i, row := range rows {
		values := []interface{}{row.Reference, row.AgentName, row.ReportType, row.Status, row.Title, row.Submitted, row.Reviewed}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			f.SetCellValue(sheet, cell, v)
		}
	}
	return f, nil
}

// ExportReportsHandler streams an XLSX of non-draft reports created between
// ?from and ?to.
func ExportReportsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fromStr := r.URL.Query().Get("from")
		toStr := r.URL.Query().Get("to")
		if fromStr == "" || toStr == "" {
			response.RespondWithError(w, http.StatusBadRequest, "from and to query params are required (YYYY-MM-DD)")
			return
		}
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		to = to.AddDate(0, 0, 1)

		rows, err := db.Query(`
			SELECT r.reference, COALESCE(u.first_name || ' ' || u.last_name, u.username),
			       r.report_type, r.status, r.title, r.submitted_at, r.reviewed_at
			FROM reports r
			JOIN users u ON u.id = r.agent_id
			WHERE r.status != 'draft' AND r.created_at >= $1 AND r.created_at < $2
			ORDER BY r.created_at`, from, to)
		if err != nil {
			log.Printf("DB error exporting reports: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		var export []exportRow
		for rows.Next() {
			var (
				row                     exportRow
				submittedAt, reviewedAt sql.NullTime
			)
			if err := rows.Scan(&row.Reference, &row.AgentName, &row.ReportType, &row.Status, &row.Title, &submittedAt, &reviewedAt); err != nil {
				log.Printf("Error scanning report export row: %v", err)
				continue
			}
			if submittedAt.Valid {
				row.Submitted = submittedAt.Time.Format("2006-01-02 15:04")
			}
			if reviewedAt.Valid {
				row.Reviewed = reviewedAt.Time.Format("2006-01-02 15:04")
			}
			export = append(export, row)
		}

		f, err := buildReportsWorkbook(export)
		if err != nil {
			log.Printf("Failed to build workbook: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to build export")
			return
		}

		filename := fmt.Sprintf("reports_%s_%s.xlsx", fromStr, toStr)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		if err := f.Write(w); err != nil {
			log.Printf("Failed to write workbook: %v", err)
		}
	}
}

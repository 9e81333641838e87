// internal/handlers/shift/export.go
package shift

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/csma94/guard-sub008/internal/pkg/response"
)

type ExportRow struct {
	ID           int
	AgentName    string
	SiteName     string
	ClientName   string
	Scheduled    string
	ActualStart  string
	ActualEnd    string
	Status       string
	WorkedTime   string
}

var exportHeader = []string{"ID", "Agent", "Site", "Client", "Scheduled", "Actual Start", "Actual End", "Status", "Worked"}

// BuildShiftsWorkbook renders export rows into an XLSX workbook.
func BuildShiftsWorkbook(rows []ExportRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Shifts"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		values := []interface{}{
			row.ID, row.AgentName, row.SiteName, row.ClientName,
			row.Scheduled, row.ActualStart, row.ActualEnd, row.Status, row.WorkedTime,
		}
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

// ExportShiftsHandler streams an XLSX of shifts between ?from and ?to.
func ExportShiftsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := parseExportRange(r)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		rows, err := db.Query(`
			SELECT s.id, COALESCE(u.first_name || ' ' || u.last_name, u.username),
			       st.name, c.name, s.scheduled_start, s.scheduled_end,
			       s.actual_start, s.actual_end, s.status, COALESCE(s.worked_duration, 0)
			FROM shifts s
			JOIN users u ON u.id = s.agent_id
			JOIN sites st ON st.id = s.site_id
			JOIN clients c ON c.id = st.client_id
			WHERE s.scheduled_start >= $1 AND s.scheduled_start < $2
			ORDER BY s.scheduled_start`, from, to)
		if err != nil {
			log.Printf("DB error exporting shifts: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer rows.Close()

		var export []ExportRow
		for rows.Next() {
			var (
				row                    ExportRow
				schedStart, schedEnd   time.Time
				actualStart, actualEnd sql.NullTime
				workedDuration         int
			)
			err := rows.Scan(&row.ID, &row.AgentName, &row.SiteName, &row.ClientName,
				&schedStart, &schedEnd, &actualStart, &actualEnd, &row.Status, &workedDuration)
			if err != nil {
				log.Printf("Error scanning export row: %v", err)
				continue
			}
			row.Scheduled = fmt.Sprintf("%s - %s", schedStart.Format("2006-01-02 15:04"), schedEnd.Format("15:04"))
			if actualStart.Valid {
				row.ActualStart = actualStart.Time.Format("2006-01-02 15:04")
			}
			if actualEnd.Valid {
				row.ActualEnd = actualEnd.Time.Format("2006-01-02 15:04")
			}
			row.WorkedTime = response.FormatDuration(workedDuration)
			export = append(export, row)
		}

		f, err := BuildShiftsWorkbook(export)
		if err != nil {
			log.Printf("Failed to build workbook: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to build export")
			return
		}

		filename := fmt.Sprintf("shifts_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		if err := f.Write(w); err != nil {
			log.Printf("Failed to write workbook: %v", err)
		}
	}
}

func parseExportRange(r *http.Request) (time.Time, time.Time, error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("from and to query params are required (YYYY-MM-DD)")
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date")
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to must not be before from")
	}
	return from, to.AddDate(0, 0, 1), nil
}

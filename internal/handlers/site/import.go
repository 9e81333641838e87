// internal/handlers/site/import.go
package site

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/csma94/guard-sub008/internal/pkg/response"
)

// ImportRow is one parsed line of a bulk site import.
type ImportRow struct {
	Name       string
	Address    string
	Latitude   float64
	Longitude  float64
	RadiusM    float64
	ClientName string
}

type ImportRequest struct {
	GoogleSheetURL string `json:"google_sheet_url,omitempty"`
}

// ImportSitesHandler accepts either an uploaded XLSX file or a Google Sheet
// URL. Expected columns: name, address, latitude, longitude, radius_m,
// client. The first row is a header.
func ImportSitesHandler(db *sql.DB, credentialsFile string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows [][]string
		var err error

		contentType := r.Header.Get("Content-Type")
		if strings.Contains(contentType, "application/json") {
			var req ImportRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
				return
			}
			if req.GoogleSheetURL == "" {
				response.RespondWithError(w, http.StatusBadRequest, "google_sheet_url is required")
				return
			}
			rows, err = readFromGoogleSheet(req.GoogleSheetURL, credentialsFile)
			if err != nil {
				response.RespondWithError(w, http.StatusInternalServerError, "Failed to read Google Sheet: "+err.Error())
				return
			}
		} else {
			file, _, err := r.FormFile("file")
			if err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "File not found")
				return
			}
			defer file.Close()

			xlsx, err := excelize.OpenReader(file)
			if err != nil {
				response.RespondWithError(w, http.StatusBadRequest, "Invalid Excel file")
				return
			}
			rows, err = xlsx.GetRows("Sheet1")
			if err != nil {
				sheetList := xlsx.GetSheetList()
				if len(sheetList) == 0 {
					response.RespondWithError(w, http.StatusBadRequest, "Empty Excel file")
					return
				}
				rows, err = xlsx.GetRows(sheetList[0])
				if err != nil {
					response.RespondWithError(w, http.StatusInternalServerError, "Failed to read sheet")
					return
				}
			}
		}

		if len(rows) < 2 {
			response.RespondWithError(w, http.StatusBadRequest, "File must contain a header and at least one row")
			return
		}

		parsed, err := ParseImportRows(rows)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		imported, err := saveImportedSites(db, parsed)
		if err != nil {
			log.Printf("Site import failed: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to import sites")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"imported": imported,
		})
	}
}

// ParseImportRows validates the spreadsheet body (header excluded).
func ParseImportRows(rows [][]string) ([]ImportRow, error) {
	var parsed []ImportRow
	for i, row := range rows[1:] {
		if len(row) < 6 {
			continue
		}
		name := strings.TrimSpace(row[0])
		address := strings.TrimSpace(row[1])
		latStr := strings.TrimSpace(row[2])
		lonStr := strings.TrimSpace(row[3])
		radiusStr := strings.TrimSpace(row[4])
		clientName := strings.TrimSpace(row[5])

		if name == "" && address == "" && clientName == "" {
			continue
		}
		if name == "" || clientName == "" {
			return nil, fmt.Errorf("row %d: name and client are required", i+2)
		}

		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("row %d: invalid latitude %q", i+2, latStr)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("row %d: invalid longitude %q", i+2, lonStr)
		}

		radius := 150.0
		if radiusStr != "" {
			radius, err = strconv.ParseFloat(radiusStr, 64)
			if err != nil || radius <= 0 {
				return nil, fmt.Errorf("row %d: invalid radius %q", i+2, radiusStr)
			}
		}

		parsed = append(parsed, ImportRow{
			Name:       name,
			Address:    address,
			Latitude:   lat,
			Longitude:  lon,
			RadiusM:    radius,
			ClientName: clientName,
		})
	}

	if len(parsed) == 0 {
		return nil, fmt.Errorf("no usable rows found")
	}
	return parsed, nil
}

func saveImportedSites(db *sql.DB, rows []ImportRow) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	imported := 0
	for _, row := range rows {
		var clientID int
		err := tx.QueryRow("SELECT id FROM clients WHERE LOWER(name) = LOWER($1)", row.ClientName).Scan(&clientID)
		if err == sql.ErrNoRows {
			err = tx.QueryRow("INSERT INTO clients (name) VALUES ($1) RETURNING id", row.ClientName).Scan(&clientID)
		}
		if err != nil {
			return 0, fmt.Errorf("client %q: %w", row.ClientName, err)
		}

		_, err = tx.Exec(`
			INSERT INTO sites (client_id, name, address, latitude, longitude, geofence_radius_m)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			clientID, row.Name, row.Address, row.Latitude, row.Longitude, row.RadiusM,
		)
		if err != nil {
			return 0, fmt.Errorf("site %q: %w", row.Name, err)
		}
		imported++
	}

	return imported, tx.Commit()
}

func readFromGoogleSheet(url, credentialsFile string) ([][]string, error) {
	re := regexp.MustCompile(`\/d\/([a-zA-Z0-9-_]+)`)
	matches := re.FindStringSubmatch(url)
	if len(matches) < 2 {
		return nil, fmt.Errorf("invalid Google Sheets URL")
	}
	spreadsheetID := matches[1]

	ctx := context.Background()
	srv, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to init Google API: %w", err)
	}

	resp, err := srv.Spreadsheets.Values.Get(spreadsheetID, "A1:F1000").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	var rows [][]string
	for _, row := range resp.Values {
		var strRow []string
		for _, cell := range row {
			strRow = append(strRow, fmt.Sprintf("%v", cell))
		}
		rows = append(rows, strRow)
	}
	return rows, nil
}

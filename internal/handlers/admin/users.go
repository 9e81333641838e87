// internal/handlers/admin/users.go
package admin

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
	services "github.com/csma94/guard-sub008/internal/services/auth"
	"github.com/csma94/guard-sub008/internal/services/notify"
)

// ListAdminUsersHandler returns every user for the admin portal.
func ListAdminUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query(`
			SELECT id, username, first_name, last_name, role, status, is_active, client_id, employee_code, created_at
			FROM users
			ORDER BY created_at DESC
		`)
		if err != nil {
			log.Printf("Database query error: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch users")
			return
		}
		defer rows.Close()

		users := []map[string]interface{}{}
		for rows.Next() {
			var (
				id                  int
				username, role      string
				status              string
				isActive            bool
				firstName, lastName sql.NullString
				clientID            sql.NullInt64
				employeeCode        sql.NullString
				createdAt           time.Time
			)
			err := rows.Scan(&id, &username, &firstName, &lastName, &role, &status, &isActive, &clientID, &employeeCode, &createdAt)
			if err != nil {
				log.Printf("Error scanning user row: %v", err)
				response.RespondWithError(w, http.StatusInternalServerError, "Failed to read user data")
				return
			}

			user := map[string]interface{}{
				"id":            id,
				"username":      username,
				"first_name":    firstName.String,
				"last_name":     lastName.String,
				"role":          role,
				"status":        status,
				"is_active":     isActive,
				"employee_code": employeeCode.String,
				"created_at":    createdAt.Format(time.RFC3339),
			}
			if clientID.Valid {
				user["client_id"] = clientID.Int64
			}
			users = append(users, user)
		}

		if err = rows.Err(); err != nil {
			log.Printf("Row iteration error: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Data read error")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, users)
	}
}

type CreateUserRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `json:"role"`
	ClientID     *int   `json:"client_id"`
	EmployeeCode string `json:"employee_code"`
}

func CreateUserHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if input.Username == "" || input.Password == "" {
			response.RespondWithError(w, http.StatusBadRequest, "Username and password are required")
			return
		}
		if input.Role == "" {
			input.Role = "agent"
		}

		var roleExists int
		if err := db.QueryRow("SELECT COUNT(*) FROM roles WHERE name = $1", input.Role).Scan(&roleExists); err != nil || roleExists == 0 {
			response.RespondWithError(w, http.StatusBadRequest, "Role does not exist")
			return
		}

		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM users WHERE LOWER(username) = LOWER($1)", input.Username).Scan(&count)
		if err != nil {
			log.Printf("DB error checking for existing user: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "DB error")
			return
		}
		if count > 0 {
			response.RespondWithError(w, http.StatusConflict, "Username already exists")
			return
		}

		passwordHash, err := services.HashPassword(input.Password)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}

		var id int
		err = db.QueryRow(`
			INSERT INTO users (username, password_hash, first_name, last_name, role, status, is_active, client_id, employee_code)
			VALUES ($1, $2, $3, $4, $5, 'active', TRUE, $6, $7)
			RETURNING id`,
			input.Username,
			passwordHash,
			input.FirstName,
			input.LastName,
			input.Role,
			input.ClientID,
			input.EmployeeCode,
		).Scan(&id)
		if err != nil {
			log.Printf("DB error creating user: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "DB error creating user")
			return
		}

		response.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "User created successfully",
			"id":      id,
		})
	}
}

func UpdateUserRoleHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userIDStr := chi.URLParam(r, "userID")
		userID, err := strconv.Atoi(userIDStr)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		var update struct {
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var roleExists int
		err = db.QueryRow("SELECT COUNT(*) FROM roles WHERE name = $1", update.Role).Scan(&roleExists)
		if err != nil || roleExists == 0 {
			response.RespondWithError(w, http.StatusBadRequest, "Role does not exist")
			return
		}

		_, err = db.Exec("UPDATE users SET role = $1 WHERE id = $2", update.Role, userID)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to update user role")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User role updated successfully"})
	}
}

func UpdateUserStatusHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userIDStr := chi.URLParam(r, "userID")
		userID, err := strconv.Atoi(userIDStr)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Status != "active" && req.Status != "pending" && req.Status != "suspended" {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid status value. Must be 'active', 'pending' or 'suspended'")
			return
		}

		isActive := req.Status == "active"

		_, err = db.Exec("UPDATE users SET status = $1, is_active = $2 WHERE id = $3", req.Status, isActive, userID)
		if err != nil {
			log.Printf("Failed to update user %d status: %v", userID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to update user status")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User status updated successfully"})
	}
}

// DeleteUserHandler removes a user. A shift left running is force-ended in
// the same transaction, so a failed delete never leaves it half-closed.
func DeleteUserHandler(db *sql.DB, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userIDStr := chi.URLParam(r, "userID")
		userID, err := strconv.Atoi(userIDStr)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		tx, err := db.Begin()
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		defer tx.Rollback()

		rows, err := tx.Query(`
			UPDATE shifts
			SET actual_end = NOW(), status = 'completed',
			    worked_duration = EXTRACT(EPOCH FROM (NOW() - actual_start))::int
			WHERE agent_id = $1 AND status = 'in_progress'
			RETURNING id`, userID)
		if err != nil {
			log.Printf("Failed to close open shifts for user %d: %v", userID, err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to close open shifts")
			return
		}
		var closedShifts []int
		for rows.Next() {
			var shiftID int
			if err := rows.Scan(&shiftID); err != nil {
				rows.Close()
				response.RespondWithError(w, http.StatusInternalServerError, "Database error")
				return
			}
			closedShifts = append(closedShifts, shiftID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		result, err := tx.Exec("DELETE FROM users WHERE id = $1", userID)
		if err != nil {
			log.Printf("Failed to delete user: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to delete user")
			return
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			log.Printf("Failed to get rows affected: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to check deletion status")
			return
		}
		if rowsAffected == 0 {
			response.RespondWithError(w, http.StatusNotFound, "User not found")
			return
		}

		if err := tx.Commit(); err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}

		for _, shiftID := range closedShifts {
			hub.BroadcastEvent(models.EventShiftUpdate, map[string]interface{}{
				"shift_id": shiftID,
				"agent_id": userID,
				"status":   models.ShiftCompleted,
				"forced":   true,
			})
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
	}
}

func CreateRoleHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var newRole struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&newRole); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if newRole.Name == "" {
			response.RespondWithError(w, http.StatusBadRequest, "Role name is required")
			return
		}

		_, err := db.Exec("INSERT INTO roles (name) VALUES ($1)", newRole.Name)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to create new role")
			return
		}

		response.RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "Role created successfully"})
	}
}

func DeleteRoleHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var roleToDelete struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&roleToDelete); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		switch roleToDelete.Name {
		case "agent", "client", "admin", "superadmin":
			response.RespondWithError(w, http.StatusBadRequest, "Cannot delete this role")
			return
		}

		_, err := db.Exec("DELETE FROM roles WHERE name = $1", roleToDelete.Name)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to delete role")
			return
		}

		response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Role deleted successfully"})
	}
}

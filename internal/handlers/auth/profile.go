// internal/handlers/auth/profile.go
package auth

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/csma94/guard-sub008/internal/middleware"
	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
)

type ProfileHandler struct {
	db *sql.DB
}

func NewProfileHandler(db *sql.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var (
		user                 models.User
		firstName, lastName  sql.NullString
		email, phone         sql.NullString
		employeeCode, avatar sql.NullString
		clientID             sql.NullInt64
	)

	err := h.db.QueryRow(`
		SELECT id, username, first_name, last_name, email, phone, role, status, is_active, client_id, employee_code, avatar_url
		FROM users
		WHERE id = $1`, userID).Scan(
		&user.ID,
		&user.Username,
		&firstName,
		&lastName,
		&email,
		&phone,
		&user.Role,
		&user.Status,
		&user.IsActive,
		&clientID,
		&employeeCode,
		&avatar,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			response.RespondWithError(w, http.StatusNotFound, "User not found")
		} else {
			log.Printf("Database error in GetProfile: %v", err)
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.Email = email.String
	user.Phone = phone.String
	user.EmployeeCode = employeeCode.String
	user.AvatarURL = avatar.String
	if clientID.Valid {
		id := int(clientID.Int64)
		user.ClientID = &id
	}

	response.RespondWithJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if req.FirstName == "" {
		response.RespondWithError(w, http.StatusBadRequest, "First name is required")
		return
	}

	_, err := h.db.Exec(`
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, phone = $4
		WHERE id = $5`,
		req.FirstName, req.LastName, req.Email, req.Phone, userID,
	)
	if err != nil {
		log.Printf("Database error updating user %d: %v", userID, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Profile updated",
	})
}

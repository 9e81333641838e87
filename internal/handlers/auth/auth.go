// internal/handlers/auth/auth.go
package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
	services "github.com/csma94/guard-sub008/internal/services/auth"
)

type AuthHandler struct {
	db         *sql.DB
	jwtService *services.JWTService
}

func NewAuthHandler(db *sql.DB, jwtService *services.JWTService) *AuthHandler {
	return &AuthHandler{
		db:         db,
		jwtService: jwtService,
	}
}

func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var regData models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&regData); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	if regData.Username == "" || regData.Password == "" {
		response.RespondWithError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	var count int
	err := h.db.QueryRow("SELECT COUNT(*) FROM users WHERE LOWER(username) = LOWER($1)", regData.Username).Scan(&count)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if count > 0 {
		response.RespondWithError(w, http.StatusBadRequest, "Username already exists")
		return
	}

	passwordHash, err := services.HashPassword(regData.Password)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	// Self-registered accounts start as pending agents until an admin
	// approves them.
	_, err = h.db.Exec(`
		INSERT INTO users (username, password_hash, first_name, last_name, email, phone, role, status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, 'agent', 'pending', TRUE)`,
		regData.Username,
		passwordHash,
		regData.FirstName,
		regData.LastName,
		regData.Email,
		regData.Phone,
	)
	if err != nil {
		log.Printf("Failed to create user %q: %v", regData.Username, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	response.RespondWithJSON(w, http.StatusCreated, map[string]string{
		"message": "Registration received. Awaiting administrator approval.",
	})
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var loginData models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginData); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	var user struct {
		ID           int
		Username     string
		PasswordHash sql.NullString
		Role         string
		Status       string
	}

	row := h.db.QueryRow(`
		SELECT id, username, password_hash, role, status
		FROM users
		WHERE LOWER(username) = LOWER($1)`,
		loginData.Username,
	)

	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		} else {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !user.PasswordHash.Valid || !services.CheckPasswordHash(loginData.Password, user.PasswordHash.String) {
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if user.Status == "suspended" {
		response.RespondWithError(w, http.StatusForbidden, "Account suspended")
		return
	}

	if user.Status == "pending" && user.Role != "superadmin" {
		response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":   user.Status,
			"message":  "Account awaiting admin approval",
			"user_id":  user.ID,
			"username": user.Username,
			"role":     user.Role,
		})
		return
	}

	token, refreshToken, err := h.jwtService.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, models.AuthResponse{
		Token:        token,
		RefreshToken: refreshToken,
		Role:         user.Role,
		UserID:       user.ID,
		Username:     user.Username,
	})
}

// RefreshAllowed reports whether an account status still permits rotating a
// refresh token. Suspended accounts hold no valid tokens.
func RefreshAllowed(status string) bool {
	return status != "suspended"
}

func (h *AuthHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	type RequestBody struct {
		RefreshToken string `json:"refresh_token"`
	}

	var body RequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if body.RefreshToken == "" {
		response.RespondWithError(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(body.RefreshToken)
	if err != nil {
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	var username, role, status string
	err = h.db.QueryRow("SELECT username, role, status FROM users WHERE id = $1", userID).Scan(&username, &role, &status)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "User not found")
		return
	}

	// A suspended account must not be able to rotate its way back in.
	if !RefreshAllowed(status) {
		h.jwtService.RevokeRefreshToken(body.RefreshToken)
		response.RespondWithError(w, http.StatusForbidden, "Account suspended")
		return
	}

	accessToken, refreshToken, err := h.jwtService.GenerateToken(userID, username, role)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Could not generate token")
		return
	}

	// Rotation: the old token is dead once a new pair is issued.
	h.jwtService.RevokeRefreshToken(body.RefreshToken)

	response.RespondWithJSON(w, http.StatusOK, models.AuthResponse{
		Token:        accessToken,
		RefreshToken: refreshToken,
		Role:         role,
	})
}

func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.RefreshToken != "" {
		if err := h.jwtService.RevokeRefreshToken(body.RefreshToken); err != nil {
			log.Printf("Failed to revoke refresh token: %v", err)
		}
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

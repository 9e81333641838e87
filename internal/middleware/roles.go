// internal/middleware/roles.go
package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/csma94/guard-sub008/internal/pkg/response"
)

// RequireRoles rejects requests whose JWT role claim is not in the allow list.
func RequireRoles(allowed ...string) func(http.Handler) http.Handler {
	allowedSet := make(map[string]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.RespondWithError(w, http.StatusUnauthorized, "Invalid claims")
				return
			}

			role, ok := claims["role"].(string)
			if !ok {
				response.RespondWithError(w, http.StatusForbidden, "Role not found")
				return
			}

			if !allowedSet[role] {
				response.RespondWithError(w, http.StatusForbidden, "Access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly gates routes for back-office staff.
func AdminOnly() func(http.Handler) http.Handler {
	return RequireRoles("superadmin", "admin", "supervisor")
}

// StaffOrClient additionally admits client portal users.
func StaffOrClient() func(http.Handler) http.Handler {
	return RequireRoles("superadmin", "admin", "supervisor", "client")
}

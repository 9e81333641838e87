// internal/middleware/user_context.go
package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/jwtauth/v5"

	"github.com/csma94/guard-sub008/config"
)

// GetUserIDFromContext returns the authenticated user's ID.
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	if val := ctx.Value(config.UserIDKey); val != nil {
		if id, ok := val.(int); ok {
			return id, true
		}
	}
	return 0, false
}

// AddUserIDToContext extracts the user_id claim from the JWT and stores it
// in the request context.
func AddUserIDToContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, _ := jwtauth.FromContext(r.Context())
			if claims == nil {
				next.ServeHTTP(w, r)
				return
			}

			var userID int
			if id, ok := claims["user_id"].(float64); ok {
				userID = int(id)
			} else if idStr, ok := claims["user_id"].(string); ok {
				if id, err := strconv.Atoi(idStr); err == nil {
					userID = id
				}
			}

			if userID != 0 {
				ctx := context.WithValue(r.Context(), config.UserIDKey, userID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

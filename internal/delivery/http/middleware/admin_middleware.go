package middleware

import (
	"net/http"

	"bakery-backend/internal/domain"
	"bakery-backend/pkg/utils"
)

// AdminMiddleware ensures the authenticated user has the 'admin' role.
// MUST be used AFTER AuthMiddleware.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
		if !ok || user == nil {
			utils.WriteErrorCode(w, http.StatusUnauthorized, "Unauthorized: No user found in context", "UNAUTHORIZED")
			return
		}

		if user.Role != domain.RoleAdmin {
			utils.WriteErrorCode(w, http.StatusForbidden, "Forbidden: Admins only", "FORBIDDEN")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AdminOnly chains AuthMiddleware and AdminMiddleware around a handler func.
func AdminOnly(h http.HandlerFunc) http.Handler {
	return AuthMiddleware(AdminMiddleware(h))
}

package middleware

import (
	"context"
	"net/http"

	"bakery-backend/internal/domain"
	"bakery-backend/pkg/utils"
)

func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := utils.TokenFromRequest(r)
		if tokenString == "" {
			utils.WriteErrorCode(w, http.StatusUnauthorized, "Unauthorized: No token provided", "UNAUTHORIZED")
			return
		}

		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			utils.WriteErrorCode(w, http.StatusUnauthorized, "Unauthorized: Invalid token", "UNAUTHORIZED")
			return
		}

		// Claims are trusted as-is; no user lookup per request.
		sub, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)

		user := &domain.User{
			ID:    sub,
			Email: email,
			Role:  role,
		}

		ctx := context.WithValue(r.Context(), domain.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

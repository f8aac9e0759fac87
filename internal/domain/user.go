package domain

type ContextKey string

const UserContextKey ContextKey = "user"

// User is the caller reconstructed from verified JWT claims.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

const RoleAdmin = "admin"

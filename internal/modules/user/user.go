package user

import (
	"time"
)

// Role distinguishes shop administrators from employees.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleEmployee }

// User represents a staff account.
// @Description User information
// @Description with _id, name, email, role and createdAt
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// stored is the persisted form of a User. PasswordHash is hidden from API
// responses but must survive a round trip through the store.
type stored struct {
	User
	PasswordHash string `json:"passwordHash"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

package entities

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents user roles
type UserRole string

const (
	UserRoleUser   UserRole = "user"
	UserRoleTrader UserRole = "trader"
	UserRoleAdmin  UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleUser, UserRoleTrader, UserRoleAdmin:
		return true
	}
	return false
}

// User represents a user entity
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	IsBlocked    bool      `json:"is_blocked"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor returns the typed caller identity for u.
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

// RegisterInput represents input for self-registration
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginInput represents input for user login
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateUserInput is the admin provisioning request.
type CreateUserInput struct {
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required"`
	Role     UserRole `json:"role"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// Me is the authenticated caller with its trader profile, if any.
type Me struct {
	User   *User   `json:"user"`
	Trader *Trader `json:"trader,omitempty"`
}

package user

import (
	"time"

	"github.com/google/uuid"
)

// Roles understood by the admin middleware.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an account allowed to operate the back office.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	Role         string     `json:"role" db:"role"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// RegisterRequest captures self-service sign up; phone must belong to a member.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"required,max=32"`
}

// LoginRequest models the login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateUserRequest is the admin variant of registration.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

// UpdateRoleRequest changes the role of an existing account.
type UpdateRoleRequest struct {
	Username string `json:"username" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin user"`
}

// UserFilter encapsulates pagination and filter params for administrative listings.
type UserFilter struct {
	Search string
	Limit  int
	Offset int
}

// AuthTokens groups issued tokens.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

// AuthResponse returns user info plus tokens.
type AuthResponse struct {
	User   *User      `json:"user"`
	Tokens AuthTokens `json:"tokens"`
}

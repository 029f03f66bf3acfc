package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is an author account. Deleting a user cascades to their posts, comments
// and follow edges in both directions.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:150"` // Ensure username is unique across all users
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SignupRequest defines the signup form fields.
type SignupRequest struct {
	Username string `form:"username" validate:"required,min=2,max=150"`
	Password string `form:"password" validate:"required,min=8"`
}

// LoginRequest defines the login form fields.
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

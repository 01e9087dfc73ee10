package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a lecturer account awaiting admin approval.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Session is an issued access token and its expiry, mirrored into the token cookies.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserInfo  `json:"user"`
}

// VerifyTokenRequest carries a bearer token to check.
type VerifyTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// VerifyTokenResponse identifies the token owner.
type VerifyTokenResponse struct {
	UID  string   `json:"uid"`
	Role UserRole `json:"role"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
	SuperAdmin bool     `json:"superAdmin"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID     string   `json:"uid"`
	Role       UserRole `json:"role"`
	Email      string   `json:"email"`
	SuperAdmin bool     `json:"superAdmin,omitempty"`
	jwt.RegisteredClaims
}

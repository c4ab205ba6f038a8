package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult represents the bearer token handed out on login
type LoginResult struct {
	AccessToken string    `json:"token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Claims represents the signed payload shared by every token the service issues
type Claims struct {
	UserID  uuid.UUID    `json:"userId"`
	Purpose TokenPurpose `json:"purpose"`

	jwt.RegisteredClaims
}

// TokenPurpose binds a token to the single operation it may authorise.
type TokenPurpose string

const (
	PurposeVerification TokenPurpose = "verification"
	PurposeAccess       TokenPurpose = "access"
)

func (p TokenPurpose) IsValid() bool {
	switch p {
	case PurposeVerification, PurposeAccess:
		return true
	default:
		return false
	}
}

package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/auth"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService signs HS256 tokens carrying a subject and a purpose.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now for issuing and for expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTokenService(secret string, opts ...TokenOption) (ports.TokenIssuer, error) {
	if secret == "" {
		return nil, apperr.NewConfigurationError("JWT_SECRET", "token signing secret is not set")
	}
	s := &TokenService{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *TokenService) Issue(subject uuid.UUID, purpose auth.TokenPurpose, ttl time.Duration) (string, time.Time, error) {
	if !purpose.IsValid() {
		return "", time.Time{}, fmt.Errorf("unknown token purpose %q", purpose)
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("token ttl must be positive")
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := &auth.Claims{
		UserID:  subject,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", purpose, err)
	}
	return token, expiresAt, nil
}

func (s *TokenService) Verify(tokenString string, purpose auth.TokenPurpose) (*auth.Claims, error) {
	if tokenString == "" {
		return nil, apperr.ErrInvalidToken
	}

	claims := &auth.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC (prevent alg confusion)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", apperr.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, apperr.ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: token issued for %q", apperr.ErrInvalidToken, claims.Purpose)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing subject", apperr.ErrInvalidToken)
	}

	return claims, nil
}

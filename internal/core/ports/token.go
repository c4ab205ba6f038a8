package ports

import (
	"time"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/auth"
	"github.com/google/uuid"
)

// TokenIssuer signs and checks short-lived tokens bound to a subject and a purpose.
type TokenIssuer interface {
	Issue(subject uuid.UUID, purpose auth.TokenPurpose, ttl time.Duration) (token string, expiresAt time.Time, err error)
	// Verify returns apperr.ErrTokenExpired past the embedded expiry and
	// apperr.ErrInvalidToken for anything else that does not check out,
	// including a purpose other than the one requested.
	Verify(token string, purpose auth.TokenPurpose) (*auth.Claims, error)
}

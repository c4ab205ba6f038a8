package ports

import (
	"context"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/auth"
	"github.com/google/uuid"
)

// AccountRepository defines the persistence contract for accounts.
// Lookups that match nothing return apperr.ErrNotFound.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	// FindByResetToken looks an account up by the stored digest of its
	// outstanding password-reset token.
	FindByResetToken(ctx context.Context, tokenDigest string) (*account.Account, error)
	// Save inserts or updates the account identified by a.ID.
	Save(ctx context.Context, a *account.Account) error
}

// AccountService defines the verification and credential lifecycle
type AccountService interface {
	Signup(ctx context.Context, req *account.SignupRequest) (*account.SignupResult, error)
	// ResendVerificationEmail reissues the token and code. A non-empty service
	// replaces the remembered provider.
	ResendVerificationEmail(ctx context.Context, email, service string) (string, error)
	VerifyEmail(ctx context.Context, verificationToken, verificationCode string) (*account.Account, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

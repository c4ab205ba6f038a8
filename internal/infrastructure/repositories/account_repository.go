package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/db"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

const accountColumns = `id, username, email, password_hash, email_service, is_verified, is_active,
		verification_token, verification_code, reset_password_token, reset_password_expiry,
		created_at, updated_at`

// AccountRepository implements the account repository on postgres
type AccountRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewAccountRepository(database *db.Database, logger *logrus.Logger) ports.AccountRepository {
	return &AccountRepository{
		db:     database,
		logger: logger,
	}
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = LOWER($1)`
	return r.get(ctx, query, logrus.Fields{"email": email}, email)
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.get(ctx, query, logrus.Fields{"user_id": id}, id)
}

func (r *AccountRepository) FindByResetToken(ctx context.Context, tokenDigest string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE reset_password_token = $1`
	return r.get(ctx, query, logrus.Fields{"lookup": "reset_token"}, tokenDigest)
}

func (r *AccountRepository) get(ctx context.Context, query string, fields logrus.Fields, arg interface{}) (*account.Account, error) {
	var a account.Account
	if err := r.db.DB.GetContext(ctx, &a, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if r.logger != nil {
				r.logger.WithFields(fields).Debug("db: account not found")
			}
			return nil, apperr.ErrNotFound
		}
		if r.logger != nil {
			r.logger.WithFields(fields).WithError(err).Error("db: failed to load account")
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &a, nil
}

// Save upserts on id. A clash on the email index is reported as a duplicate.
func (r *AccountRepository) Save(ctx context.Context, a *account.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			email_service = EXCLUDED.email_service,
			is_verified = EXCLUDED.is_verified,
			is_active = EXCLUDED.is_active,
			verification_token = EXCLUDED.verification_token,
			verification_code = EXCLUDED.verification_code,
			reset_password_token = EXCLUDED.reset_password_token,
			reset_password_expiry = EXCLUDED.reset_password_expiry,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.DB.ExecContext(ctx, query,
		a.ID, a.Username, a.Email, a.PasswordHash, string(a.EmailService), a.IsVerified, a.IsActive,
		a.VerificationToken, a.VerificationCode, a.ResetPasswordToken, a.ResetPasswordExpiry,
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if r.logger != nil {
				r.logger.WithFields(logrus.Fields{"user_id": a.ID, "constraint": pqErr.Constraint}).Debug("db: duplicate account")
			}
			return fmt.Errorf("%w: %s", apperr.ErrDuplicateAccount, pqErr.Constraint)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": a.ID}).WithError(err).Error("db: failed to save account")
		}
		return fmt.Errorf("failed to save account: %w", err)
	}

	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"user_id": a.ID}).Debug("db: account saved")
	}
	return nil
}

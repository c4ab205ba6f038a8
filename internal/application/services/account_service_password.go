package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/sirupsen/logrus"
)

const resetTokenBytes = 32

// ForgotPassword stores a one-time reset token on the account and mails it.
// Only the token digest is persisted.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	a, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}

	digest := HashResetToken(token)
	expiry := s.now().Add(s.cfg.ResetTokenTTL)
	a.ResetPasswordToken = &digest
	a.ResetPasswordExpiry = &expiry
	a.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, a); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if a.EmailService == "" {
		a.EmailService = account.ProviderDefault
	}

	msg, err := s.renderer.PasswordReset(a.Email, ports.PasswordResetEmailData{
		Username:  a.Username,
		Token:     token,
		ResetURL:  s.resetLink(token),
		ExpiresIn: describeTTL(s.cfg.ResetTokenTTL),
	})
	if err != nil {
		return fmt.Errorf("failed to render password reset email: %w", err)
	}

	return s.deliver(ctx, a, msg, "send password reset email")
}

func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return apperr.ErrPasswordMismatch
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.ErrInvalidOrExpiredToken
	}

	a, err := s.repo.FindByResetToken(ctx, HashResetToken(token))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	if !a.HasPendingReset(s.now()) {
		return apperr.ErrInvalidOrExpiredToken
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	a.ClearPasswordReset()
	a.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, a); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": a.ID}).Info("password reset")
	return nil
}

func (s *AccountService) resetLink(token string) string {
	if s.cfg.ResetURL == "" {
		return ""
	}
	u, err := url.Parse(s.cfg.ResetURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// HashResetToken returns the digest under which a reset token is stored.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/auth"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/sirupsen/logrus"
)

func (s *AccountService) ResendVerificationEmail(ctx context.Context, email, service string) (string, error) {
	a, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(service) != "" {
		a.EmailService = account.ParseEmailProvider(service)
	}
	if a.EmailService == "" {
		return "", apperr.ErrMissingService
	}

	// Overwrites the previous pair; the old code stops matching.
	code, err := s.issueVerification(a)
	if err != nil {
		return "", err
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, a); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.sendVerificationEmail(ctx, a, code); err != nil {
		return "", err
	}
	return a.VerificationToken, nil
}

func (s *AccountService) VerifyEmail(ctx context.Context, verificationToken, verificationCode string) (*account.Account, error) {
	verificationToken = strings.TrimSpace(verificationToken)
	verificationCode = strings.TrimSpace(verificationCode)
	if verificationToken == "" || verificationCode == "" {
		return nil, apperr.ErrBadRequest
	}

	claims, err := s.tokens.Verify(verificationToken, auth.PurposeVerification)
	if err != nil {
		return nil, err
	}

	a, err := s.GetAccount(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	if a.IsVerified {
		return nil, apperr.ErrAlreadyVerified
	}

	stored, err := s.codec.Decrypt(a.VerificationCode)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"user_id": a.ID}).WithError(err).Error("failed to decrypt stored verification code")
		return nil, fmt.Errorf("%w: %w", apperr.ErrDecryption, err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(verificationCode)) != 1 {
		return nil, apperr.ErrCodeMismatch
	}

	a.MarkVerified(s.now())
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to mark account verified: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": a.ID}).Info("email verified")
	return a, nil
}

// issueVerification stores a fresh encrypted code and verification token on
// a and returns the plaintext code for delivery.
func (s *AccountService) issueVerification(a *account.Account) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	encrypted, err := s.codec.Encrypt(code)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt verification code: %w", err)
	}

	token, _, err := s.tokens.Issue(a.ID, auth.PurposeVerification, s.cfg.VerificationTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue verification token: %w", err)
	}

	a.VerificationCode = encrypted
	a.VerificationToken = token
	return code, nil
}

func (s *AccountService) sendVerificationEmail(ctx context.Context, a *account.Account, code string) error {
	msg, err := s.renderer.Verification(a.Email, ports.VerificationEmailData{
		Username:  a.Username,
		Code:      code,
		ExpiresIn: describeTTL(s.cfg.VerificationTokenTTL),
	})
	if err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}
	return s.deliver(ctx, a, msg, "send verification email")
}

// deliver sends msg through the account's provider under the retry policy.
func (s *AccountService) deliver(ctx context.Context, a *account.Account, msg *ports.EmailMessage, op string) error {
	err := s.cfg.Retry.Do(ctx, s.logger, op, func(int) error {
		return s.dispatcher.Send(ctx, a.EmailService, msg)
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":       a.ID,
			"email_service": a.EmailService,
		}).WithError(err).Error("email delivery failed")
		return fmt.Errorf("%w: %w", apperr.ErrEmailDelivery, err)
	}
	return nil
}

func describeTTL(d time.Duration) string {
	minutes := int(d.Minutes())
	switch {
	case minutes >= 60 && minutes%60 == 0:
		return plural(minutes/60, "hour")
	case minutes >= 1:
		return plural(minutes, "minute")
	default:
		return "less than a minute"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

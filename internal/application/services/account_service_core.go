package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/auth"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// AccountServiceConfig holds the lifecycle tunables.
type AccountServiceConfig struct {
	VerificationTokenTTL time.Duration
	AccessTokenTTL       time.Duration
	ResetTokenTTL        time.Duration
	PasswordCost         int
	Retry                RetryPolicy
	// ResetURL is the frontend page the reset email links to; the token is
	// appended as a query parameter.
	ResetURL string
	Clock    func() time.Time
}

func (c *AccountServiceConfig) withDefaults() AccountServiceConfig {
	out := AccountServiceConfig{}
	if c != nil {
		out = *c
	}
	if out.VerificationTokenTTL <= 0 {
		out.VerificationTokenTTL = 5 * time.Minute
	}
	if out.AccessTokenTTL <= 0 {
		out.AccessTokenTTL = time.Hour
	}
	if out.ResetTokenTTL <= 0 {
		out.ResetTokenTTL = time.Hour
	}
	if out.PasswordCost == 0 {
		out.PasswordCost = bcrypt.DefaultCost
	}
	if out.Retry.MaxAttempts <= 0 {
		out.Retry.MaxAttempts = defaultMaxAttempts
	}
	if out.Clock == nil {
		out.Clock = time.Now
	}
	return out
}

type AccountService struct {
	repo       ports.AccountRepository
	codec      ports.CodeCipher
	tokens     ports.TokenIssuer
	dispatcher ports.EmailDispatcher
	renderer   ports.EmailRenderer
	cfg        AccountServiceConfig
	logger     *logrus.Logger
}

func NewAccountService(repo ports.AccountRepository, codec ports.CodeCipher, tokens ports.TokenIssuer, dispatcher ports.EmailDispatcher, renderer ports.EmailRenderer, cfg *AccountServiceConfig, logger *logrus.Logger) ports.AccountService {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &AccountService{
		repo:       repo,
		codec:      codec,
		tokens:     tokens,
		dispatcher: dispatcher,
		renderer:   renderer,
		cfg:        cfg.withDefaults(),
		logger:     logger,
	}
}

func (s *AccountService) now() time.Time {
	return s.cfg.Clock()
}

func (s *AccountService) Signup(ctx context.Context, req *account.SignupRequest) (*account.SignupResult, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, apperr.ErrDuplicateAccount
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &account.Account{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(req.Username),
		Email:        email,
		PasswordHash: hash,
		EmailService: account.ParseEmailProvider(req.Service),
		IsVerified:   false,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	code, err := s.issueVerification(a)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, a); err != nil {
		if errors.Is(err, apperr.ErrDuplicateAccount) {
			return nil, apperr.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":       a.ID,
		"email_service": a.EmailService,
	}).Info("account created")

	// The account stays stored when delivery fails; resend recovers it.
	if err := s.sendVerificationEmail(ctx, a, code); err != nil {
		return nil, err
	}

	return &account.SignupResult{Account: a, VerificationToken: a.VerificationToken}, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	a, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	// Checked after the password so a wrong password never reveals the
	// verification state.
	if !a.IsVerified {
		return nil, apperr.ErrEmailNotVerified
	}

	token, expiresAt, err := s.tokens.Issue(a.ID, auth.PurposeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &auth.LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.cfg.AccessTokenTTL.Seconds()),
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	a, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(oldPassword)); err != nil {
		return apperr.ErrInvalidCredentials
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	a.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, a); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return a, nil
}

func (s *AccountService) findByEmail(ctx context.Context, email string) (*account.Account, error) {
	a, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return a, nil
}

func (s *AccountService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// generateCode returns a uniformly random six-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

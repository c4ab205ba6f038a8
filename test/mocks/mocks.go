package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/auth"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/google/uuid"
)

// AccountRepositoryMock is a lightweight mock for AccountRepository
type AccountRepositoryMock struct {
	FindByEmailFn      func(ctx context.Context, email string) (*account.Account, error)
	FindByIDFn         func(ctx context.Context, id uuid.UUID) (*account.Account, error)
	FindByResetTokenFn func(ctx context.Context, tokenDigest string) (*account.Account, error)
	SaveFn             func(ctx context.Context, a *account.Account) error
}

func (m *AccountRepositoryMock) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	if m.FindByEmailFn != nil {
		return m.FindByEmailFn(ctx, email)
	}
	return nil, apperr.ErrNotFound
}
func (m *AccountRepositoryMock) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return nil, apperr.ErrNotFound
}
func (m *AccountRepositoryMock) FindByResetToken(ctx context.Context, tokenDigest string) (*account.Account, error) {
	if m.FindByResetTokenFn != nil {
		return m.FindByResetTokenFn(ctx, tokenDigest)
	}
	return nil, apperr.ErrNotFound
}
func (m *AccountRepositoryMock) Save(ctx context.Context, a *account.Account) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

// AccountStore is an in-memory AccountRepository with the same uniqueness
// and not-found behaviour as the postgres one. Records are copied in and out.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]account.Account
	Saves    int
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[uuid.UUID]account.Account)}
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			out := a
			return &out, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *AccountStore) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &a, nil
}

func (s *AccountStore) FindByResetToken(ctx context.Context, tokenDigest string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ResetPasswordToken != nil && *a.ResetPasswordToken == tokenDigest {
			out := a
			return &out, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *AccountStore) Save(ctx context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, other := range s.accounts {
		if id != a.ID && strings.EqualFold(other.Email, a.Email) {
			return fmt.Errorf("%w: email %s", apperr.ErrDuplicateAccount, a.Email)
		}
	}
	s.accounts[a.ID] = *a
	s.Saves++
	return nil
}

// Count returns the number of stored accounts.
func (s *AccountStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// SentEmail records a single Send call.
type SentEmail struct {
	Provider account.EmailProvider
	Message  ports.EmailMessage
}

// DispatcherMock records every delivery attempt. FailFirst makes that many
// leading attempts fail before SendFn (or success) takes over.
type DispatcherMock struct {
	mu        sync.Mutex
	SendFn    func(ctx context.Context, provider account.EmailProvider, msg *ports.EmailMessage) error
	FailFirst int
	Attempts  int
	Sent      []SentEmail
}

func (m *DispatcherMock) Send(ctx context.Context, provider account.EmailProvider, msg *ports.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts++
	if m.Attempts <= m.FailFirst {
		return fmt.Errorf("transport unavailable (attempt %d)", m.Attempts)
	}
	if m.SendFn != nil {
		if err := m.SendFn(ctx, provider, msg); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, SentEmail{Provider: provider, Message: *msg})
	return nil
}

// Last returns the most recently delivered message.
func (m *DispatcherMock) Last() (SentEmail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentEmail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// RendererMock renders plain messages whose bodies carry the template data
// verbatim, so tests can read codes and tokens back out.
type RendererMock struct {
	VerificationFn  func(to string, data ports.VerificationEmailData) (*ports.EmailMessage, error)
	PasswordResetFn func(to string, data ports.PasswordResetEmailData) (*ports.EmailMessage, error)
}

func (m *RendererMock) Verification(to string, data ports.VerificationEmailData) (*ports.EmailMessage, error) {
	if m.VerificationFn != nil {
		return m.VerificationFn(to, data)
	}
	return &ports.EmailMessage{To: to, Subject: "Email Verification", TextBody: data.Code}, nil
}
func (m *RendererMock) PasswordReset(to string, data ports.PasswordResetEmailData) (*ports.EmailMessage, error) {
	if m.PasswordResetFn != nil {
		return m.PasswordResetFn(to, data)
	}
	return &ports.EmailMessage{To: to, Subject: "Password Reset", TextBody: data.Token}, nil
}

// CodeCipherMock is a lightweight mock for CodeCipher
type CodeCipherMock struct {
	EncryptFn func(code string) (string, error)
	DecryptFn func(ciphertext string) (string, error)
}

func (m *CodeCipherMock) Encrypt(code string) (string, error) {
	if m.EncryptFn != nil {
		return m.EncryptFn(code)
	}
	return "enc:" + code, nil
}
func (m *CodeCipherMock) Decrypt(ciphertext string) (string, error) {
	if m.DecryptFn != nil {
		return m.DecryptFn(ciphertext)
	}
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", apperr.ErrDecryption
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

// TokenIssuerMock is a lightweight mock for TokenIssuer
type TokenIssuerMock struct {
	IssueFn  func(subject uuid.UUID, purpose auth.TokenPurpose, ttl time.Duration) (string, time.Time, error)
	VerifyFn func(token string, purpose auth.TokenPurpose) (*auth.Claims, error)
}

func (m *TokenIssuerMock) Issue(subject uuid.UUID, purpose auth.TokenPurpose, ttl time.Duration) (string, time.Time, error) {
	if m.IssueFn != nil {
		return m.IssueFn(subject, purpose, ttl)
	}
	return string(purpose) + ":" + subject.String(), time.Now().Add(ttl), nil
}

func (m *TokenIssuerMock) Verify(token string, purpose auth.TokenPurpose) (*auth.Claims, error) {
	if m.VerifyFn != nil {
		return m.VerifyFn(token, purpose)
	}
	return nil, apperr.ErrInvalidToken
}

// AccountServiceMock is a lightweight mock for AccountService
type AccountServiceMock struct {
	SignupFn                  func(ctx context.Context, req *account.SignupRequest) (*account.SignupResult, error)
	ResendVerificationEmailFn func(ctx context.Context, email, service string) (string, error)
	VerifyEmailFn             func(ctx context.Context, token, code string) (*account.Account, error)
	LoginFn                   func(ctx context.Context, email, password string) (*auth.LoginResult, error)
	ChangePasswordFn          func(ctx context.Context, email, oldPassword, newPassword string) error
	ForgotPasswordFn          func(ctx context.Context, email string) error
	ResetPasswordFn           func(ctx context.Context, token, newPassword, confirmPassword string) error
	GetAccountFn              func(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

func (m *AccountServiceMock) Signup(ctx context.Context, req *account.SignupRequest) (*account.SignupResult, error) {
	if m.SignupFn != nil {
		return m.SignupFn(ctx, req)
	}
	return nil, fmt.Errorf("not implemented")
}
func (m *AccountServiceMock) ResendVerificationEmail(ctx context.Context, email, service string) (string, error) {
	if m.ResendVerificationEmailFn != nil {
		return m.ResendVerificationEmailFn(ctx, email, service)
	}
	return "", fmt.Errorf("not implemented")
}
func (m *AccountServiceMock) VerifyEmail(ctx context.Context, token, code string) (*account.Account, error) {
	if m.VerifyEmailFn != nil {
		return m.VerifyEmailFn(ctx, token, code)
	}
	return nil, fmt.Errorf("not implemented")
}
func (m *AccountServiceMock) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, email, password)
	}
	return nil, fmt.Errorf("not implemented")
}
func (m *AccountServiceMock) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if m.ChangePasswordFn != nil {
		return m.ChangePasswordFn(ctx, email, oldPassword, newPassword)
	}
	return nil
}
func (m *AccountServiceMock) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFn != nil {
		return m.ForgotPasswordFn(ctx, email)
	}
	return nil
}
func (m *AccountServiceMock) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if m.ResetPasswordFn != nil {
		return m.ResetPasswordFn(ctx, token, newPassword, confirmPassword)
	}
	return nil
}
func (m *AccountServiceMock) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if m.GetAccountFn != nil {
		return m.GetAccountFn(ctx, id)
	}
	return nil, apperr.ErrNotFound
}

// HealthCheckerMock reports a fixed result.
type HealthCheckerMock struct {
	NameValue string
	Err       error
}

func (m *HealthCheckerMock) Name() string                    { return m.NameValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error { return m.Err }

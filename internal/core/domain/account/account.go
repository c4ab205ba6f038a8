package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is the persisted user record guarded by the verification and
// credential lifecycle.
type Account struct {
	ID                  uuid.UUID     `json:"id" db:"id"`
	Username            string        `json:"username" db:"username"`
	Email               string        `json:"email" db:"email"`
	PasswordHash        string        `json:"-" db:"password_hash"`
	EmailService        EmailProvider `json:"email_service" db:"email_service"`
	IsVerified          bool          `json:"is_verified" db:"is_verified"`
	IsActive            bool          `json:"is_active" db:"is_active"`
	VerificationToken   string        `json:"-" db:"verification_token"`
	VerificationCode    string        `json:"-" db:"verification_code"`
	ResetPasswordToken  *string       `json:"-" db:"reset_password_token"`
	ResetPasswordExpiry *time.Time    `json:"-" db:"reset_password_expiry"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`
}

// HasPendingReset reports whether a password reset is outstanding at now.
func (a *Account) HasPendingReset(now time.Time) bool {
	return a.ResetPasswordToken != nil && a.ResetPasswordExpiry != nil && now.Before(*a.ResetPasswordExpiry)
}

// ClearPasswordReset drops any outstanding reset token.
func (a *Account) ClearPasswordReset() {
	a.ResetPasswordToken = nil
	a.ResetPasswordExpiry = nil
}

// MarkVerified flips the account to verified. There is no way back.
func (a *Account) MarkVerified(now time.Time) {
	a.IsVerified = true
	a.UpdatedAt = now
}

// EmailProvider selects the outbound mail transport for an account.
type EmailProvider string

const (
	ProviderGmail    EmailProvider = "gmail"
	ProviderYopmail  EmailProvider = "yopmail"
	ProviderYahoo    EmailProvider = "yahoo"
	ProviderOutlook  EmailProvider = "outlook"
	ProviderSendGrid EmailProvider = "sendgrid"
	ProviderDefault  EmailProvider = "default"
)

func (p EmailProvider) String() string {
	return string(p)
}

// IsPreset reports whether p names a built-in transport rather than the
// custom host configured for the default provider.
func (p EmailProvider) IsPreset() bool {
	switch p {
	case ProviderGmail, ProviderYopmail, ProviderYahoo, ProviderOutlook, ProviderSendGrid:
		return true
	default:
		return false
	}
}

// ParseEmailProvider normalises a caller-supplied selector. Empty and
// unknown names resolve to the default (custom host) provider.
func ParseEmailProvider(s string) EmailProvider {
	p := EmailProvider(strings.ToLower(strings.TrimSpace(s)))
	if p.IsPreset() {
		return p
	}
	return ProviderDefault
}

// SignupRequest represents the request to register a new account
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Service  string `json:"service,omitempty"`
}

// VerifyEmailRequest carries the token from the signup response and the
// code from the verification email.
type VerifyEmailRequest struct {
	VerificationToken string `json:"verificationToken"`
	VerificationCode  string `json:"verificationCode"`
}

type ResendVerificationRequest struct {
	Email   string `json:"email"`
	Service string `json:"service,omitempty"`
}

type ChangePasswordRequest struct {
	Email           string `json:"email"`
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// SignupResult is returned once the account is stored and the code mailed.
type SignupResult struct {
	Account           *Account `json:"user"`
	VerificationToken string   `json:"verificationToken"`
}

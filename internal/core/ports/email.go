package ports

import (
	"context"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
)

// EmailMessage is a rendered message ready for delivery.
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailDispatcher delivers a message through the transport selected by
// provider. A call is a single attempt; retrying is up to the caller.
type EmailDispatcher interface {
	Send(ctx context.Context, provider account.EmailProvider, msg *EmailMessage) error
}

// VerificationEmailData holds data for the verification template
type VerificationEmailData struct {
	Username  string
	Code      string
	ExpiresIn string
}

// PasswordResetEmailData holds data for the password reset template
type PasswordResetEmailData struct {
	Username  string
	Token     string
	ResetURL  string
	ExpiresIn string
}

// EmailRenderer turns template data into deliverable messages.
type EmailRenderer interface {
	Verification(to string, data VerificationEmailData) (*EmailMessage, error)
	PasswordReset(to string, data PasswordResetEmailData) (*EmailMessage, error)
}

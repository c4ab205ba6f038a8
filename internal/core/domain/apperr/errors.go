// Package apperr defines the error taxonomy shared by the account lifecycle
// and the layers around it. Domain failures are sentinel values matched with
// errors.Is; configuration and validation failures carry detail and are
// matched with errors.As.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBadRequest            = errors.New("verification token and code are required")
	ErrNotFound              = errors.New("user not found")
	ErrDuplicateAccount      = errors.New("user already exists")
	ErrMissingService        = errors.New("no email service recorded for user")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrAlreadyVerified       = errors.New("email already verified")
	ErrCodeMismatch          = errors.New("invalid verification code")
	ErrTokenExpired          = errors.New("token expired")
	ErrInvalidToken          = errors.New("invalid token")
	ErrDecryption            = errors.New("failed to decrypt verification code")
	ErrPasswordMismatch      = errors.New("new password and confirm password do not match")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrEmailDelivery         = errors.New("error sending email")
)

// ConfigurationError reports missing or malformed process configuration.
// It is fatal at startup and never produced by a well-configured request.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// NewConfigurationError builds a ConfigurationError for key.
func NewConfigurationError(key, reason string) error {
	return &ConfigurationError{Key: key, Reason: reason}
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// FieldError is a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// ValidationError reports malformed caller input. The request is rejected;
// nothing is persisted.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsDomain reports whether err belongs to the caller-visible taxonomy, as
// opposed to an unexpected internal failure.
func IsDomain(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}

var domainErrors = []error{
	ErrBadRequest,
	ErrNotFound,
	ErrDuplicateAccount,
	ErrMissingService,
	ErrInvalidCredentials,
	ErrEmailNotVerified,
	ErrAlreadyVerified,
	ErrCodeMismatch,
	ErrTokenExpired,
	ErrInvalidToken,
	ErrDecryption,
	ErrPasswordMismatch,
	ErrInvalidOrExpiredToken,
	ErrEmailDelivery,
}

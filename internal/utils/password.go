package utils

import (
	"errors"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores everything past 72 bytes, so longer input is refused
	// instead of silently truncated.
	MaxPasswordBytes = 72
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes long")
	ErrPasswordEncoding = errors.New("password must be valid UTF-8")
)

// ValidatePassword checks the length rules applied to every new password.
func ValidatePassword(password string) error {
	if !utf8.ValidString(password) {
		return ErrPasswordEncoding
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

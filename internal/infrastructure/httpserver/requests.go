package httpserver

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/auth"
	"github.com/avatarctic/account-lifecycle/internal/utils"
)

var validEmail = []validation.Rule{
	validation.Required.Error("Email is required"),
	is.Email.Error("Please include a valid email"),
}

func passwordRule(value interface{}) error {
	s, _ := value.(string)
	return utils.ValidatePassword(s)
}

func equalTo(other string, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != other {
			return errors.New(message)
		}
		return nil
	}
}

type signupPayload account.SignupRequest

func (r signupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("Username is required")),
		validation.Field(&r.Email, validEmail...),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
			validation.By(passwordRule),
		),
	)
}

type verifyEmailPayload account.VerifyEmailRequest

func (r verifyEmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.VerificationToken, validation.Required.Error("Verification token is required")),
		validation.Field(&r.VerificationCode, validation.Required.Error("Verification code is required")),
	)
}

type resendVerificationPayload account.ResendVerificationRequest

func (r resendVerificationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validEmail...),
	)
}

type loginPayload auth.LoginRequest

func (r loginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validEmail...),
		validation.Field(&r.Password, validation.Required.Error("Password is required")),
	)
}

type changePasswordPayload account.ChangePasswordRequest

func (r changePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validEmail...),
		validation.Field(&r.OldPassword, validation.Required.Error("Old password is required")),
		validation.Field(&r.NewPassword,
			validation.Required.Error("New password is required"),
			validation.By(passwordRule),
		),
		validation.Field(&r.ConfirmPassword,
			validation.Required.Error("Confirm password is required"),
			validation.By(equalTo(r.NewPassword, "Passwords do not match")),
		),
	)
}

type forgotPasswordPayload account.ForgotPasswordRequest

func (r forgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validEmail...),
	)
}

// The confirm/new comparison is left to the service, which owns that error.
type resetPasswordPayload account.ResetPasswordRequest

func (r resetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required.Error("Token is required")),
		validation.Field(&r.NewPassword,
			validation.Required.Error("New password is required"),
			validation.By(passwordRule),
		),
		validation.Field(&r.ConfirmPassword, validation.Required.Error("Confirm password is required")),
	)
}

package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/httpserver/helpers"
)

const internalErrorMessage = "Something went wrong!"

type errorMapping struct {
	err    error
	status int
	msg    string
}

// errorMappings is matched in order; delivery failures wrap their cause so
// they come first.
var errorMappings = []errorMapping{
	{apperr.ErrEmailDelivery, http.StatusInternalServerError, "Error sending verification email"},
	{apperr.ErrDecryption, http.StatusInternalServerError, "Failed to verify email"},
	{apperr.ErrBadRequest, http.StatusBadRequest, "Verification token and code are required"},
	{apperr.ErrNotFound, http.StatusNotFound, "User not found"},
	{apperr.ErrDuplicateAccount, http.StatusBadRequest, "User already exists"},
	{apperr.ErrMissingService, http.StatusBadRequest, "No email service recorded for this user"},
	{apperr.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{apperr.ErrEmailNotVerified, http.StatusForbidden, "Please verify your email before logging in"},
	{apperr.ErrAlreadyVerified, http.StatusBadRequest, "Email already verified"},
	{apperr.ErrCodeMismatch, http.StatusBadRequest, "Invalid verification code"},
	{apperr.ErrTokenExpired, http.StatusBadRequest, "Verification token has expired"},
	{apperr.ErrInvalidToken, http.StatusBadRequest, "Invalid verification token"},
	{apperr.ErrPasswordMismatch, http.StatusBadRequest, "New password and confirm password do not match"},
	{apperr.ErrInvalidOrExpiredToken, http.StatusBadRequest, "Invalid or expired reset token"},
}

type errorBody struct {
	Msg    string              `json:"msg,omitempty"`
	Errors []apperr.FieldError `json:"errors,omitempty"`
}

// resolveError maps err onto a status and a body that is safe to return.
func resolveError(err error) (int, errorBody) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorBody{Errors: ve.Fields}
	}

	// Handlers that pick their own message wrap the cause in an HTTPError,
	// which unwraps to it, so this is checked before the sentinels.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorBody{Msg: fmt.Sprint(he.Message)}
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, errorBody{Msg: m.msg}
		}
	}

	return http.StatusInternalServerError, errorBody{Msg: internalErrorMessage}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := resolveError(err)

	switch {
	case status >= http.StatusInternalServerError:
		cause := err
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Internal != nil {
			cause = he.Internal
		}
		s.logger.WithFields(logrus.Fields{
			"request_id": helpers.GetRequestID(c),
			"method":     c.Request().Method,
			"path":       c.Path(),
			"status":     status,
		}).WithError(cause).Error("request failed")
	case apperr.IsDomain(err):
		s.logger.WithFields(logrus.Fields{
			"request_id": helpers.GetRequestID(c),
			"path":       c.Path(),
			"status":     status,
		}).WithError(err).Debug("request rejected")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		s.logger.WithError(writeErr).Error("failed to write error response")
	}
}

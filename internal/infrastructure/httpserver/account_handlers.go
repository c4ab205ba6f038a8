package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/httpserver/helpers"
)

func (s *Server) changePassword(c echo.Context) error {
	var req changePasswordPayload
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.accountSvc.ChangePassword(c.Request().Context(), req.Email, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"msg": "Password changed successfully"})
}

func (s *Server) forgotPassword(c echo.Context) error {
	var req forgotPasswordPayload
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.accountSvc.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, apperr.ErrEmailDelivery) {
			return echo.NewHTTPError(http.StatusInternalServerError, "Error sending password reset email").SetInternal(err)
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"msg": "Password reset email sent"})
}

func (s *Server) resetPassword(c echo.Context) error {
	var req resetPasswordPayload
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.accountSvc.ResetPassword(c.Request().Context(), req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"msg": "Password has been reset successfully"})
}

// getOwnAccount returns the account behind the bearer token
func (s *Server) getOwnAccount(c echo.Context) error {
	userID, err := helpers.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	a, err := s.accountSvc.GetAccount(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, a)
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
)

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}

// Auth handlers
func (s *Server) signup(c echo.Context) error {
	var req signupPayload
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	signupReq := account.SignupRequest(req)
	result, err := s.accountSvc.Signup(c.Request().Context(), &signupReq)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"msg":               "User registered. Verification email sent.",
		"user":              result.Account,
		"verificationToken": result.VerificationToken,
	})
}

func (s *Server) verifyEmail(c echo.Context) error {
	var req verifyEmailPayload
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := s.accountSvc.VerifyEmail(c.Request().Context(), req.VerificationToken, req.VerificationCode)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"msg":  "Email verified successfully",
		"user": a,
	})
}

func (s *Server) resendVerificationEmail(c echo.Context) error {
	var req resendVerificationPayload
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := s.accountSvc.ResendVerificationEmail(c.Request().Context(), req.Email, req.Service)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"msg":               "Verification email sent successfully",
		"verificationToken": token,
	})
}

func (s *Server) login(c echo.Context) error {
	var req loginPayload
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := s.accountSvc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

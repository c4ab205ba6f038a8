package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/auth"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/httpserver/helpers"
)

type JWTMiddleware struct {
	tokens ports.TokenIssuer
	logger *logrus.Logger
}

func NewJWTMiddleware(tokens ports.TokenIssuer, logger *logrus.Logger) *JWTMiddleware {
	return &JWTMiddleware{tokens: tokens, logger: logger}
}

// RequireJWT accepts only access tokens. Verification tokens handed out at
// signup are rejected even though they carry the same signature.
func (m *JWTMiddleware) RequireJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := helpers.GetBearerToken(c)
			if err != nil {
				return err
			}

			claims, err := m.tokens.Verify(tokenString, auth.PurposeAccess)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"ip": c.RealIP(), "path": c.Request().URL.Path}).WithError(err).Warn("JWT validation failed")
				}
				msg := "invalid token"
				if errors.Is(err, apperr.ErrTokenExpired) {
					msg = "token expired"
				}
				return echo.NewHTTPError(http.StatusUnauthorized, msg)
			}

			helpers.SetUserID(c, claims.UserID)
			if claims.ExpiresAt != nil {
				helpers.SetTokenExpiry(c, claims.ExpiresAt.Unix())
			}

			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{"user_id": claims.UserID}).Debug("jwt validated and user context set")
			}
			return next(c)
		}
	}
}

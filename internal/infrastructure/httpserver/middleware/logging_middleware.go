package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/account-lifecycle/internal/infrastructure/httpserver/helpers"
)

type LoggingMiddleware struct {
	logger *logrus.Logger
}

func NewLoggingMiddleware(logger *logrus.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// RequestLogging writes one structured line per request. Bodies are never
// logged; they carry passwords and codes.
func (m *LoggingMiddleware) RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				helpers.SetRequestID(c, id)
			}

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is known.
				c.Error(err)
			}

			if m.logger != nil {
				entry := m.logger.WithFields(logrus.Fields{
					"request_id": helpers.GetRequestID(c),
					"method":     c.Request().Method,
					"path":       c.Path(),
					"status":     c.Response().Status,
					"latency_ms": time.Since(start).Milliseconds(),
					"remote_ip":  c.RealIP(),
				})
				if c.Response().Status >= 500 {
					entry.Warn("request completed with server error")
				} else {
					entry.Info("request completed")
				}
			}
			return nil
		}
	}
}

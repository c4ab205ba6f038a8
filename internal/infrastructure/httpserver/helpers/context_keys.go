package helpers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type ctxKey string

const (
	keyUserID    ctxKey = "user_id"
	keyTokenExp  ctxKey = "token_expires_at"
	keyRequestID ctxKey = "request_id"
)

func SetUserID(c echo.Context, id uuid.UUID) { c.Set(string(keyUserID), id) }
func GetUserIDRaw(c echo.Context) (uuid.UUID, bool) {
	v := c.Get(string(keyUserID))
	id, ok := v.(uuid.UUID)
	return id, ok
}

func SetTokenExpiry(c echo.Context, unix int64) { c.Set(string(keyTokenExp), unix) }
func GetTokenExpiryRaw(c echo.Context) (int64, bool) {
	v := c.Get(string(keyTokenExp))
	exp, ok := v.(int64)
	return exp, ok
}

func SetRequestID(c echo.Context, id string) { c.Set(string(keyRequestID), id) }
func GetRequestIDRaw(c echo.Context) (string, bool) {
	v := c.Get(string(keyRequestID))
	id, ok := v.(string)
	return id, ok && id != ""
}

package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("VERIFICATION_SECRET_KEY", "code-secret")
	t.Setenv("VERIFICATION_VECTOR", "000102030405060708090a0b0c0d0e0f")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.JWT.VerificationTokenTTL)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, "aes-256-cbc", cfg.Crypto.Algorithm)
	assert.Equal(t, 10, cfg.Account.PasswordCost)
	assert.Equal(t, 3, cfg.Account.EmailMaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.Account.EmailRetryDelay)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Contains(t, cfg.Database.DSN, "dbname=accounts")
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("EMAIL_SECURE", "true")
	t.Setenv("EMAIL_PORT", "465")
	t.Setenv("EMAIL_USER", "mailer@example.com")
	t.Setenv("JWT_VERIFICATION_TTL", "10m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/accounts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Email.Secure)
	assert.Equal(t, 465, cfg.Email.Port)
	assert.Equal(t, "mailer@example.com", cfg.Email.From)
	assert.Equal(t, 10*time.Minute, cfg.JWT.VerificationTokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "postgres://u:p@db/accounts", cfg.Database.DSN)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("VERIFICATION_SECRET_KEY", "")
	t.Setenv("VERIFICATION_VECTOR", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "VERIFICATION_VECTOR")
}

package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/account-lifecycle/internal/application/services"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/auth"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/httpserver"
	"github.com/avatarctic/account-lifecycle/test/mocks"
)

type testEnv struct {
	srv    *httpserver.Server
	svc    *mocks.AccountServiceMock
	tokens ports.TokenIssuer
}

func newTestEnv(t *testing.T, checkers ...ports.HealthChecker) *testEnv {
	t.Helper()
	tokens, err := services.NewTokenService("test-secret")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := &mocks.AccountServiceMock{}
	srv := httpserver.NewServer(&httpserver.ServerConfig{Host: "127.0.0.1", Port: "0", Version: "test"}, logger, httpserver.ServerDeps{
		AccountService: svc,
		Tokens:         tokens,
		HealthCheckers: checkers,
	})
	return &testEnv{srv: srv, svc: svc, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.Echo().ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func fieldErrors(t *testing.T, body map[string]interface{}) map[string]string {
	t.Helper()
	raw, ok := body["errors"].([]interface{})
	require.True(t, ok, "expected an errors array, got %v", body)
	out := make(map[string]string, len(raw))
	for _, item := range raw {
		fe := item.(map[string]interface{})
		out[fe["field"].(string)] = fe["msg"].(string)
	}
	return out
}

func testAccount() *account.Account {
	return &account.Account{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$04$secret",
		EmailService: account.ProviderGmail,
		IsActive:     true,
	}
}

func TestSignup_CreatesAccount(t *testing.T) {
	env := newTestEnv(t)
	a := testAccount()
	var got *account.SignupRequest
	env.svc.SignupFn = func(ctx context.Context, req *account.SignupRequest) (*account.SignupResult, error) {
		got = req
		return &account.SignupResult{Account: a, VerificationToken: "verify-token"}, nil
	}

	rec, body := env.do(t, http.MethodPost, "/api/auth/signup",
		`{"username":"alice","email":"alice@example.com","password":"secret1","service":"gmail"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User registered. Verification email sent.", body["msg"])
	assert.Equal(t, "verify-token", body["verificationToken"])
	require.NotNil(t, got)
	assert.Equal(t, "gmail", got.Service)

	user := body["user"].(map[string]interface{})
	assert.Equal(t, a.ID.String(), user["id"])
	assert.NotContains(t, rec.Body.String(), "password_hash")
	assert.NotContains(t, rec.Body.String(), a.PasswordHash)
}

func TestSignup_RejectsMalformedInput(t *testing.T) {
	env := newTestEnv(t)
	called := false
	env.svc.SignupFn = func(ctx context.Context, req *account.SignupRequest) (*account.SignupResult, error) {
		called = true
		return nil, nil
	}

	rec, body := env.do(t, http.MethodPost, "/api/auth/signup", `{"username":"","email":"not-an-email","password":"123"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := fieldErrors(t, body)
	assert.Equal(t, "Username is required", errs["username"])
	assert.Equal(t, "Please include a valid email", errs["email"])
	assert.Contains(t, errs["password"], "at least 6")
	assert.False(t, called)
}

func TestSignup_MalformedJSON(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.do(t, http.MethodPost, "/api/auth/signup", `{"username":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", body["msg"])
}

func TestSignup_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"duplicate", apperr.ErrDuplicateAccount, http.StatusBadRequest, "User already exists"},
		{"delivery", fmt.Errorf("%w: %w", apperr.ErrEmailDelivery, errors.New("smtp down")), http.StatusInternalServerError, "Error sending verification email"},
		{"unexpected", errors.New("pq: connection refused"), http.StatusInternalServerError, "Something went wrong!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.svc.SignupFn = func(ctx context.Context, req *account.SignupRequest) (*account.SignupResult, error) {
				return nil, tt.err
			}
			rec, body := env.do(t, http.MethodPost, "/api/auth/signup",
				`{"username":"alice","email":"alice@example.com","password":"secret1"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, body["msg"])
			assert.NotContains(t, rec.Body.String(), "smtp down")
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestVerifyEmail(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		a := testAccount()
		a.IsVerified = true
		env.svc.VerifyEmailFn = func(ctx context.Context, token, code string) (*account.Account, error) {
			assert.Equal(t, "tok", token)
			assert.Equal(t, "123456", code)
			return a, nil
		}
		rec, body := env.do(t, http.MethodPost, "/api/auth/verify-email", `{"verificationToken":"tok","verificationCode":"123456"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Email verified successfully", body["msg"])
	})

	t.Run("missing code", func(t *testing.T) {
		env := newTestEnv(t)
		rec, body := env.do(t, http.MethodPost, "/api/auth/verify-email", `{"verificationToken":"tok"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Verification code is required", fieldErrors(t, body)["verificationCode"])
	})

	failures := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.ErrNotFound, http.StatusNotFound, "User not found"},
		{apperr.ErrAlreadyVerified, http.StatusBadRequest, "Email already verified"},
		{apperr.ErrCodeMismatch, http.StatusBadRequest, "Invalid verification code"},
		{apperr.ErrTokenExpired, http.StatusBadRequest, "Verification token has expired"},
		{apperr.ErrInvalidToken, http.StatusBadRequest, "Invalid verification token"},
		{apperr.ErrBadRequest, http.StatusBadRequest, "Verification token and code are required"},
		{fmt.Errorf("%w: %w", apperr.ErrDecryption, errors.New("bad padding")), http.StatusInternalServerError, "Failed to verify email"},
	}
	for _, f := range failures {
		t.Run(f.msg, func(t *testing.T) {
			env := newTestEnv(t)
			env.svc.VerifyEmailFn = func(ctx context.Context, token, code string) (*account.Account, error) {
				return nil, f.err
			}
			rec, body := env.do(t, http.MethodPost, "/api/auth/verify-email", `{"verificationToken":"tok","verificationCode":"000000"}`)
			assert.Equal(t, f.status, rec.Code)
			assert.Equal(t, f.msg, body["msg"])
		})
	}
}

func TestResendVerificationEmail_PassesServiceOverride(t *testing.T) {
	env := newTestEnv(t)
	env.svc.ResendVerificationEmailFn = func(ctx context.Context, email, service string) (string, error) {
		assert.Equal(t, "alice@example.com", email)
		assert.Equal(t, "outlook", service)
		return "fresh-token", nil
	}

	rec, body := env.do(t, http.MethodPost, "/api/auth/resend-verification-email", `{"email":"alice@example.com","service":"outlook"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Verification email sent successfully", body["msg"])
	assert.Equal(t, "fresh-token", body["verificationToken"])
}

func TestResendVerificationEmail_MissingService(t *testing.T) {
	env := newTestEnv(t)
	env.svc.ResendVerificationEmailFn = func(ctx context.Context, email, service string) (string, error) {
		return "", apperr.ErrMissingService
	}
	rec, _ := env.do(t, http.MethodPost, "/api/auth/resend-verification-email", `{"email":"alice@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.LoginFn = func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			return &auth.LoginResult{AccessToken: "access", TokenType: "Bearer", ExpiresIn: 3600}, nil
		}
		rec, body := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "access", body["token"])
		assert.Equal(t, "Bearer", body["token_type"])
	})

	t.Run("invalid credentials", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.LoginFn = func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			return nil, apperr.ErrInvalidCredentials
		}
		rec, body := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials", body["msg"])
	})

	t.Run("unverified", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.LoginFn = func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			return nil, apperr.ErrEmailNotVerified
		}
		rec, _ := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing password", func(t *testing.T) {
		env := newTestEnv(t)
		rec, body := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Password is required", fieldErrors(t, body)["password"])
	})
}

func TestChangePassword(t *testing.T) {
	t.Run("confirmation must match", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.ChangePasswordFn = func(ctx context.Context, email, oldPassword, newPassword string) error {
			t.Fatal("service must not be called")
			return nil
		}
		rec, body := env.do(t, http.MethodPost, "/api/auth/change-password",
			`{"email":"alice@example.com","oldPassword":"secret1","newPassword":"secret2","confirmPassword":"secret3"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Passwords do not match", fieldErrors(t, body)["confirmPassword"])
	})

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.ChangePasswordFn = func(ctx context.Context, email, oldPassword, newPassword string) error {
			assert.Equal(t, "secret1", oldPassword)
			assert.Equal(t, "secret2", newPassword)
			return nil
		}
		rec, body := env.do(t, http.MethodPost, "/api/auth/change-password",
			`{"email":"alice@example.com","oldPassword":"secret1","newPassword":"secret2","confirmPassword":"secret2"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Password changed successfully", body["msg"])
	})
}

func TestForgotPassword_DeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	env.svc.ForgotPasswordFn = func(ctx context.Context, email string) error {
		return fmt.Errorf("%w: %w", apperr.ErrEmailDelivery, errors.New("421 try later"))
	}
	rec, body := env.do(t, http.MethodPost, "/api/auth/forgot-password", `{"email":"alice@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error sending password reset email", body["msg"])
}

func TestResetPassword(t *testing.T) {
	t.Run("mismatch is reported by the service", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.ResetPasswordFn = func(ctx context.Context, token, newPassword, confirmPassword string) error {
			return apperr.ErrPasswordMismatch
		}
		rec, body := env.do(t, http.MethodPost, "/api/auth/reset-password",
			`{"token":"abc","newPassword":"secret2","confirmPassword":"secret3"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "New password and confirm password do not match", body["msg"])
	})

	t.Run("expired token", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.ResetPasswordFn = func(ctx context.Context, token, newPassword, confirmPassword string) error {
			return apperr.ErrInvalidOrExpiredToken
		}
		rec, body := env.do(t, http.MethodPost, "/api/auth/reset-password",
			`{"token":"abc","newPassword":"secret2","confirmPassword":"secret2"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid or expired reset token", body["msg"])
	})

	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t)
		rec, body := env.do(t, http.MethodPost, "/api/auth/reset-password", `{"newPassword":"secret2","confirmPassword":"secret2"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Token is required", fieldErrors(t, body)["token"])
	})
}

func TestMe(t *testing.T) {
	a := testAccount()

	t.Run("requires a bearer token", func(t *testing.T) {
		env := newTestEnv(t)
		rec, _ := env.do(t, http.MethodGet, "/api/auth/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a verification token", func(t *testing.T) {
		env := newTestEnv(t)
		token, _, err := env.tokens.Issue(a.ID, auth.PurposeVerification, time.Minute)
		require.NoError(t, err)
		rec, _ := env.do(t, http.MethodGet, "/api/auth/me", "", "Authorization", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("returns the account", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.GetAccountFn = func(ctx context.Context, id uuid.UUID) (*account.Account, error) {
			require.Equal(t, a.ID, id)
			return a, nil
		}
		token, _, err := env.tokens.Issue(a.ID, auth.PurposeAccess, time.Minute)
		require.NoError(t, err)
		rec, body := env.do(t, http.MethodGet, "/api/auth/me", "", "Authorization", "Bearer "+token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, a.Email, body["email"])
	})
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		env := newTestEnv(t, &mocks.HealthCheckerMock{NameValue: "database"})
		rec, body := env.do(t, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "test", body["version"])
	})

	t.Run("degraded", func(t *testing.T) {
		env := newTestEnv(t,
			&mocks.HealthCheckerMock{NameValue: "database"},
			&mocks.HealthCheckerMock{NameValue: "redis", Err: errors.New("dial tcp: refused")},
		)
		rec, body := env.do(t, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "degraded", body["status"])
		deps := body["dependencies"].(map[string]interface{})
		assert.Equal(t, "unhealthy", deps["redis"].(map[string]interface{})["status"])
		assert.Equal(t, "healthy", deps["database"].(map[string]interface{})["status"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/health", "")

	rec, _ := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestResponsesCarryRequestID(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

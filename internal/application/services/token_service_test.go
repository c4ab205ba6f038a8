package services_test

import (
	"testing"
	"time"

	impl "github.com/avatarctic/account-lifecycle/internal/application/services"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	clock := newClock()
	svc, err := impl.NewTokenService("secret", impl.WithClock(clock.Now))
	require.NoError(t, err)

	id := uuid.New()
	token, expiresAt, err := svc.Issue(id, auth.PurposeVerification, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(5*time.Minute), expiresAt)

	claims, err := svc.Verify(token, auth.PurposeVerification)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, id.String(), claims.Subject)
	assert.Equal(t, auth.PurposeVerification, claims.Purpose)
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	clock := newClock()
	svc, err := impl.NewTokenService("secret", impl.WithClock(clock.Now))
	require.NoError(t, err)

	ttl := 5 * time.Minute
	token, _, err := svc.Issue(uuid.New(), auth.PurposeVerification, ttl)
	require.NoError(t, err)

	clock.Advance(ttl - time.Second)
	_, err = svc.Verify(token, auth.PurposeVerification)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = svc.Verify(token, auth.PurposeVerification)
	require.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestTokenService_RejectsWrongPurpose(t *testing.T) {
	svc, err := impl.NewTokenService("secret")
	require.NoError(t, err)

	token, _, err := svc.Issue(uuid.New(), auth.PurposeVerification, time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(token, auth.PurposeAccess)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenService_RejectsForeignSignature(t *testing.T) {
	issuer, err := impl.NewTokenService("secret-a")
	require.NoError(t, err)
	verifier, err := impl.NewTokenService("secret-b")
	require.NoError(t, err)

	token, _, err := issuer.Issue(uuid.New(), auth.PurposeAccess, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token, auth.PurposeAccess)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenService_RejectsMalformedAndUnsigned(t *testing.T) {
	svc, err := impl.NewTokenService("secret")
	require.NoError(t, err)

	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := svc.Verify(tok, auth.PurposeAccess)
		require.ErrorIs(t, err, apperr.ErrInvalidToken, tok)
	}

	claims := &auth.Claims{
		UserID:  uuid.New(),
		Purpose: auth.PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(none, auth.PurposeAccess)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenService_RequiresExpiry(t *testing.T) {
	svc, err := impl.NewTokenService("secret")
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{UserID: uuid.New(), Purpose: auth.PurposeAccess}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.Verify(noExp, auth.PurposeAccess)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := impl.NewTokenService("")
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))
}

func TestTokenService_IssueValidatesArguments(t *testing.T) {
	svc, err := impl.NewTokenService("secret")
	require.NoError(t, err)

	_, _, err = svc.Issue(uuid.New(), auth.TokenPurpose("reset"), time.Minute)
	require.Error(t, err)
	_, _, err = svc.Issue(uuid.New(), auth.PurposeAccess, 0)
	require.Error(t, err)
}

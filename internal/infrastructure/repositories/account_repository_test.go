package repositories_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/db"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "username", "email", "password_hash", "email_service", "is_verified", "is_active",
	"verification_token", "verification_code", "reset_password_token", "reset_password_expiry",
	"created_at", "updated_at",
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newMockDB(t *testing.T) (*db.Database, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return &db.Database{DB: sqlx.NewDb(raw, "postgres")}, mock
}

func TestAccountRepository_FindByID(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewAccountRepository(database, quietLogger())

	id := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	digest := "abc"
	rows := sqlmock.NewRows(columns).AddRow(
		id.String(), "alice", "a@x.com", "$2a$10$hash", "gmail", true, true,
		"tok", "cipher", digest, now.Add(time.Hour), now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).WithArgs(id).WillReturnRows(rows)

	a, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, account.ProviderGmail, a.EmailService)
	assert.True(t, a.IsVerified)
	require.NotNil(t, a.ResetPasswordToken)
	assert.Equal(t, digest, *a.ResetPasswordToken)
	require.NotNil(t, a.ResetPasswordExpiry)
	assert.True(t, a.ResetPasswordExpiry.Equal(now.Add(time.Hour)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_FindByEmailNotFound(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewAccountRepository(database, quietLogger())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(email) = LOWER($1)")).
		WithArgs("nobody@x.com").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.FindByEmail(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_FindByResetTokenDriverError(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewAccountRepository(database, quietLogger())

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE reset_password_token = $1")).WithArgs("digest").WillReturnError(boom)

	_, err := repo.FindByResetToken(context.Background(), "digest")
	require.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func newAccount() *account.Account {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &account.Account{
		ID:                uuid.New(),
		Username:          "alice",
		Email:             "a@x.com",
		PasswordHash:      "$2a$10$hash",
		EmailService:      account.ProviderDefault,
		IsActive:          true,
		VerificationToken: "tok",
		VerificationCode:  "cipher",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func saveArgs(a *account.Account) []driver.Value {
	return []driver.Value{
		a.ID, a.Username, a.Email, a.PasswordHash, string(a.EmailService), a.IsVerified, a.IsActive,
		a.VerificationToken, a.VerificationCode, sqlmock.AnyArg(), sqlmock.AnyArg(), a.CreatedAt, a.UpdatedAt,
	}
}

func TestAccountRepository_SaveUpserts(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewAccountRepository(database, quietLogger())
	a := newAccount()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE SET")).
		WithArgs(saveArgs(a)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_SaveDuplicateEmail(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewAccountRepository(database, quietLogger())

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_accounts_email"})

	err := repo.Save(context.Background(), newAccount())
	require.ErrorIs(t, err, apperr.ErrDuplicateAccount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_SaveOtherFailure(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewAccountRepository(database, quietLogger())

	mock.ExpectExec("INSERT INTO accounts").WillReturnError(&pq.Error{Code: "23502"})

	err := repo.Save(context.Background(), newAccount())
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperr.ErrDuplicateAccount))
	require.NoError(t, mock.ExpectationsWereMet())
}

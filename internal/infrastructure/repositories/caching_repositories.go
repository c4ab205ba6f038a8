package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

func cacheSetSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// cachedAccount is the cache encoding of an account. Account hides its
// secrets from JSON, so the cache keeps its own field set.
type cachedAccount struct {
	ID                  uuid.UUID  `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"password_hash"`
	EmailService        string     `json:"email_service"`
	IsVerified          bool       `json:"is_verified"`
	IsActive            bool       `json:"is_active"`
	VerificationToken   string     `json:"verification_token"`
	VerificationCode    string     `json:"verification_code"`
	ResetPasswordToken  *string    `json:"reset_password_token,omitempty"`
	ResetPasswordExpiry *time.Time `json:"reset_password_expiry,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func toCached(a *account.Account) cachedAccount {
	return cachedAccount{
		ID:                  a.ID,
		Username:            a.Username,
		Email:               a.Email,
		PasswordHash:        a.PasswordHash,
		EmailService:        string(a.EmailService),
		IsVerified:          a.IsVerified,
		IsActive:            a.IsActive,
		VerificationToken:   a.VerificationToken,
		VerificationCode:    a.VerificationCode,
		ResetPasswordToken:  a.ResetPasswordToken,
		ResetPasswordExpiry: a.ResetPasswordExpiry,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func (c cachedAccount) toAccount() *account.Account {
	return &account.Account{
		ID:                  c.ID,
		Username:            c.Username,
		Email:               c.Email,
		PasswordHash:        c.PasswordHash,
		EmailService:        account.EmailProvider(c.EmailService),
		IsVerified:          c.IsVerified,
		IsActive:            c.IsActive,
		VerificationToken:   c.VerificationToken,
		VerificationCode:    c.VerificationCode,
		ResetPasswordToken:  c.ResetPasswordToken,
		ResetPasswordExpiry: c.ResetPasswordExpiry,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func accountIDKey(id uuid.UUID) string { return "account:id:" + id.String() }
func accountEmailKey(email string) string {
	return "account:email:" + strings.ToLower(strings.TrimSpace(email))
}

// CachingAccountRepository decorates an AccountRepository with cache-aside
// reads. Reset-token lookups always go to the store.
type CachingAccountRepository struct {
	inner  ports.AccountRepository
	cache  ports.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *logrus.Logger
}

func NewCachingAccountRepository(inner ports.AccountRepository, cache ports.Cache, ttl time.Duration, logger *logrus.Logger) ports.AccountRepository {
	return &CachingAccountRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachingAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return c.load(ctx, accountIDKey(id), func() (*account.Account, error) {
		return c.inner.FindByID(ctx, id)
	})
}

func (c *CachingAccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return c.load(ctx, accountEmailKey(email), func() (*account.Account, error) {
		return c.inner.FindByEmail(ctx, email)
	})
}

func (c *CachingAccountRepository) FindByResetToken(ctx context.Context, tokenDigest string) (*account.Account, error) {
	return c.inner.FindByResetToken(ctx, tokenDigest)
}

func (c *CachingAccountRepository) Save(ctx context.Context, a *account.Account) error {
	// The previous email key has to go when the address changes.
	var previous *cachedAccount
	if v, ok := cacheGet[cachedAccount](c.cache, ctx, accountIDKey(a.ID)); ok {
		previous = v
	}

	if err := c.inner.Save(ctx, a); err != nil {
		return err
	}

	if c.cache != nil && previous != nil && !strings.EqualFold(previous.Email, a.Email) {
		if err := c.cache.Delete(ctx, accountEmailKey(previous.Email)); err != nil && c.logger != nil {
			c.logger.WithFields(logrus.Fields{"user_id": a.ID}).WithError(err).Warn("cache: failed to evict stale email key")
		}
	}
	c.store(ctx, a)
	return nil
}

// load serves key from the cache, otherwise coalesces concurrent misses for
// the same key into one store read.
func (c *CachingAccountRepository) load(ctx context.Context, key string, loader func() (*account.Account, error)) (*account.Account, error) {
	if v, ok := cacheGet[cachedAccount](c.cache, ctx, key); ok {
		return v.toAccount(), nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := cacheGet[cachedAccount](c.cache, ctx, key); ok {
			return *v, nil
		}
		a, err := loader()
		if err != nil {
			return nil, err
		}
		c.store(ctx, a)
		return toCached(a), nil
	})
	if err != nil {
		return nil, err
	}

	v, ok := res.(cachedAccount)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	// Each caller gets its own copy.
	return v.toAccount(), nil
}

func (c *CachingAccountRepository) store(ctx context.Context, a *account.Account) {
	v := toCached(a)
	cacheSetSilently(c.cache, ctx, accountIDKey(a.ID), v, c.ttl)
	cacheSetSilently(c.cache, ctx, accountEmailKey(a.Email), v, c.ttl)
}

package health

import (
	"context"

	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/db"
	"github.com/go-redis/redis/v8"
)

// Checker adapts a probe function to ports.HealthChecker.
type Checker struct {
	name  string
	probe func(ctx context.Context) error
}

func (c *Checker) Name() string                    { return c.name }
func (c *Checker) Check(ctx context.Context) error { return c.probe(ctx) }

// NewChecker wraps probe under name.
func NewChecker(name string, probe func(ctx context.Context) error) ports.HealthChecker {
	return &Checker{name: name, probe: probe}
}

// NewDBHealthChecker pings postgres.
func NewDBHealthChecker(database *db.Database) ports.HealthChecker {
	return NewChecker("database", database.Ping)
}

// NewRedisHealthChecker pings the account cache.
func NewRedisHealthChecker(client redis.UniversalClient) ports.HealthChecker {
	return NewChecker("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

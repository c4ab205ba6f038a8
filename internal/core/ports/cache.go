package ports

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value cache. Callers treat every error as a
// miss and fall back to the primary store.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key; ttl <= 0 keeps it until evicted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

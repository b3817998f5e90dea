package shared

import (
	"context"
	"time"
)

// IdempotencyStore deduplicates client submissions carrying an idempotency key.
// A key moves from absent -> reserved -> completed(result).
type IdempotencyStore interface {
	// Reserve claims the key. Returns false if it was already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete records the result for a reserved key.
	Complete(ctx context.Context, key, result string, ttl time.Duration) error

	// Result returns the recorded result. found is false when the key is unknown;
	// result is empty while the key is reserved but not yet completed.
	Result(ctx context.Context, key string) (result string, found bool, err error)

	// Release drops a reservation so the client may retry.
	Release(ctx context.Context, key string) error

	// Close releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL bounds how long a key is remembered
	TTL time.Duration
	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevocations remembers access tokens invalidated before they expire,
// e.g. on logout. Entries are keyed by the token's JTI.
type TokenRevocations interface {
	// Revoke records the JTI for ttl, normally the token's remaining lifetime
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked checks whether the JTI was revoked
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisTokenRevocations implements TokenRevocations using Redis
type RedisTokenRevocations struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenRevocations creates a revocation list on an existing Redis client
func NewRedisTokenRevocations(client redis.UniversalClient) *RedisTokenRevocations {
	return &RedisTokenRevocations{
		client:    client,
		keyPrefix: "storefront:token:revoked:",
	}
}

// Revoke adds a token's JTI to the revocation list
func (r *RedisTokenRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks if a token's JTI is in the revocation list
func (r *RedisTokenRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists > 0, nil
}

var _ TokenRevocations = (*RedisTokenRevocations)(nil)

// InMemoryTokenRevocations is a single-instance revocation list
type InMemoryTokenRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time // JTI -> expiration time
	now     func() time.Time
}

// NewInMemoryTokenRevocations creates a new in-memory revocation list
func NewInMemoryTokenRevocations() *InMemoryTokenRevocations {
	return &InMemoryTokenRevocations{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke adds a token's JTI to the in-memory list
func (r *InMemoryTokenRevocations) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[jti] = r.now().Add(ttl)
	return nil
}

// IsRevoked checks if a token's JTI is revoked and not yet expired
func (r *InMemoryTokenRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiration, exists := r.entries[jti]
	if !exists {
		return false, nil
	}
	if r.now().After(expiration) {
		delete(r.entries, jti)
		return false, nil
	}
	return true, nil
}

var _ TokenRevocations = (*InMemoryTokenRevocations)(nil)

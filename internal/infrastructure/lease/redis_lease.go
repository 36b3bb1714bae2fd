package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisLease implements per-tenant mutual exclusion around the sync engine
// using SET NX with a TTL. The TTL bounds how long a crashed pass can keep
// a tenant locked out.
type RedisLease struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisLease creates a lease manager.
func NewRedisLease(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisLease {
	return &RedisLease{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func leaseKey(tenantID string) string {
	return "sync:lease:" + tenantID
}

// Acquire attempts to take the lease for a tenant. It reports false without
// error when another pass already holds it.
func (l *RedisLease) Acquire(ctx context.Context, tenantID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, leaseKey(tenantID), "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sync lease: %w", err)
	}
	if !ok {
		l.logger.Debug().Str("tenantId", tenantID).Msg("Sync lease already held")
	}
	return ok, nil
}

// Release frees the lease for a tenant.
func (l *RedisLease) Release(ctx context.Context, tenantID string) error {
	if err := l.client.Del(ctx, leaseKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to release sync lease: %w", err)
	}
	return nil
}

package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger stores revocations as TTL keys in a shared Redis, for
// deployments where more than one process validates tokens. Redis expiry
// replaces the sweep.
type RedisLedger struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisOption configures a RedisLedger.
type RedisOption func(*RedisLedger)

// WithKeyPrefix overrides the key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(l *RedisLedger) {
		l.keyPrefix = prefix
	}
}

// NewRedisLedger creates a Redis-backed ledger.
func NewRedisLedger(client redis.UniversalClient, opts ...RedisOption) *RedisLedger {
	l := &RedisLedger{
		client:    client,
		keyPrefix: "authguard:blacklist:",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add records a token hash with the remaining token lifetime as TTL.
func (l *RedisLedger) Add(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return l.client.Set(ctx, l.keyPrefix+tokenHash, "1", ttl).Err()
}

// Contains reports whether a token hash is revoked.
func (l *RedisLedger) Contains(ctx context.Context, tokenHash string) (bool, error) {
	exists, err := l.client.Exists(ctx, l.keyPrefix+tokenHash).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Size returns the number of live entries.
func (l *RedisLedger) Size(ctx context.Context) (int64, error) {
	var (
		cursor uint64
		count  int64
	)
	for {
		keys, next, err := l.client.Scan(ctx, cursor, l.keyPrefix+"*", 1000).Result()
		if err != nil {
			return 0, err
		}
		count += int64(len(keys))
		if next == 0 {
			return count, nil
		}
		cursor = next
	}
}

// Sweep is a no-op: Redis drops expired keys on its own.
func (l *RedisLedger) Sweep(ctx context.Context) error {
	return nil
}

var _ Ledger = (*RedisLedger)(nil)

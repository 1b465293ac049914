package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/silverbridge/backend/internal/auth/domain"
)

const DefaultRedisKeyPrefix = "silverbridge:revoked:"

// Redis keeps one key per revoked jti, written with SET NX and a TTL equal
// to the token's remaining lifetime. Redis expires keys itself, so several
// service instances can share the registry without a pruning job.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

// WithClock replaces the time source used to compute key TTLs.
func (r *Redis) WithClock(now func() time.Time) *Redis {
	r.now = now
	return r
}

func (r *Redis) key(jti string) string { return r.prefix + jti }

func (r *Redis) Revoke(ctx context.Context, e domain.RevocationEntry) (bool, error) {
	ttl := retention(e, r.now())
	value := string(e.Reason) + ":" + e.Subject

	won, err := r.client.SetNX(ctx, r.key(e.JTI), value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return won, nil
}

func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return n == 1, nil
}

// Prune is a no-op; keys carry their own TTL.
func (r *Redis) Prune(context.Context, time.Time) (int, error) { return 0, nil }

// Ping reports whether the server answers.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

package revocation_test

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/revocation"
	"github.com/silverbridge/backend/internal/auth/store"
	"github.com/silverbridge/backend/internal/auth/store/drivers/sqlite"
)

type backend struct {
	name string
	new  func(t *testing.T) revocation.Registry
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) revocation.Registry { return revocation.NewMemory() }},
		{"redis", func(t *testing.T) revocation.Registry {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return revocation.NewRedis(client, "")
		}},
		{"sqlite", func(t *testing.T) revocation.Registry {
			s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "auth.db")))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			require.NoError(t, s.ApplyMigrations())
			return store.NewRevocationRegistry(s)
		}},
	}
}

func entry(jti string, expiresIn time.Duration) domain.RevocationEntry {
	now := time.Now()
	return domain.RevocationEntry{
		JTI:       jti,
		Subject:   "alice",
		Reason:    domain.ReasonRotated,
		RevokedAt: now,
		ExpiresAt: now.Add(expiresIn),
	}
}

func TestRegistry_RevokeOnce(t *testing.T) {
	t.Parallel()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			reg := b.new(t)

			revoked, err := reg.IsRevoked(ctx, "jti-a")
			require.NoError(t, err)
			require.False(t, revoked)

			won, err := reg.Revoke(ctx, entry("jti-a", time.Hour))
			require.NoError(t, err)
			require.True(t, won)

			revoked, err = reg.IsRevoked(ctx, "jti-a")
			require.NoError(t, err)
			require.True(t, revoked)

			won, err = reg.Revoke(ctx, entry("jti-a", time.Hour))
			require.NoError(t, err)
			require.False(t, won, "a jti is revoked at most once")

			revoked, err = reg.IsRevoked(ctx, "jti-b")
			require.NoError(t, err)
			require.False(t, revoked)
		})
	}
}

func TestRegistry_ConcurrentRevokeSingleWinner(t *testing.T) {
	t.Parallel()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			reg := b.new(t)

			const workers = 32
			var (
				wg    sync.WaitGroup
				start = make(chan struct{})
				wins  atomic.Int32
				errs  atomic.Int32
			)
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					won, err := reg.Revoke(ctx, entry("contended", time.Hour))
					if err != nil {
						errs.Add(1)
						return
					}
					if won {
						wins.Add(1)
					}
				}()
			}
			close(start)
			wg.Wait()

			require.Zero(t, errs.Load())
			require.EqualValues(t, 1, wins.Load())
		})
	}
}

func TestRegistry_VisibleAfterRevoke(t *testing.T) {
	t.Parallel()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			reg := b.new(t)

			_, err := reg.Revoke(ctx, entry("visible", time.Hour))
			require.NoError(t, err)

			var wg sync.WaitGroup
			var misses atomic.Int32
			for range 16 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					revoked, err := reg.IsRevoked(ctx, "visible")
					if err != nil || !revoked {
						misses.Add(1)
					}
				}()
			}
			wg.Wait()
			require.Zero(t, misses.Load())
		})
	}
}

func TestMemory_Prune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0)
	reg := revocation.NewMemory().WithClock(func() time.Time { return now })

	live := domain.RevocationEntry{JTI: "live", ExpiresAt: now.Add(time.Hour)}
	dead := domain.RevocationEntry{JTI: "dead", ExpiresAt: now.Add(-time.Hour)}
	_, err := reg.Revoke(ctx, live)
	require.NoError(t, err)
	_, err = reg.Revoke(ctx, dead)
	require.NoError(t, err)

	got, ok := reg.Entry("dead")
	require.True(t, ok)
	require.Equal(t, now.Add(revocation.MinRetention), got.ExpiresAt, "already expired entries are kept briefly")

	n, err := reg.Prune(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = reg.Prune(ctx, now.Add(revocation.MinRetention))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	revoked, err := reg.IsRevoked(ctx, "live")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRedis_TTLFollowsTokenExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Unix(1_700_000_000, 0)
	reg := revocation.NewRedis(client, "test:").WithClock(func() time.Time { return now })

	e := domain.RevocationEntry{JTI: "j1", Subject: "alice", Reason: domain.ReasonLogout, ExpiresAt: now.Add(10 * time.Minute)}
	won, err := reg.Revoke(ctx, e)
	require.NoError(t, err)
	require.True(t, won)

	require.True(t, mr.Exists("test:j1"))
	require.Equal(t, 10*time.Minute, mr.TTL("test:j1"))
	v, err := mr.Get("test:j1")
	require.NoError(t, err)
	require.Equal(t, "logout:alice", v)

	expired := domain.RevocationEntry{JTI: "j2", ExpiresAt: now.Add(-time.Minute)}
	_, err = reg.Revoke(ctx, expired)
	require.NoError(t, err)
	require.Equal(t, revocation.MinRetention, mr.TTL("test:j2"))

	mr.FastForward(10 * time.Minute)
	revoked, err := reg.IsRevoked(ctx, "j1")
	require.NoError(t, err)
	require.False(t, revoked, "redis drops the key once the token would have expired anyway")

	n, err := reg.Prune(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRedis_Unavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	reg := revocation.NewRedis(client, "")

	mr.Close()

	_, err := reg.IsRevoked(ctx, "any")
	require.ErrorIs(t, err, revocation.ErrUnavailable)

	_, err = reg.Revoke(ctx, entry("any", time.Hour))
	require.ErrorIs(t, err, revocation.ErrUnavailable)

	require.ErrorIs(t, reg.Ping(ctx), revocation.ErrUnavailable)
}

func TestSQLiteRegistry_Prune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	reg := store.NewRevocationRegistry(s)

	now := time.Unix(1_700_000_000, 0)
	_, err = reg.Revoke(ctx, domain.RevocationEntry{JTI: "old", Subject: "a", Reason: domain.ReasonLogout, RevokedAt: now, ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)
	_, err = reg.Revoke(ctx, domain.RevocationEntry{JTI: "new", Subject: "a", Reason: domain.ReasonLogout, RevokedAt: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	n, err := reg.Prune(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	revoked, err := reg.IsRevoked(ctx, "new")
	require.NoError(t, err)
	require.True(t, revoked)
}

package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/revocation"
	"github.com/silverbridge/backend/pkg/authsdk"
)

func TestRotate_AliceScenario(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()

	u := h.join(t, "김앨리스", "010-1234-5678", "secret123", domain.RoleMember)
	first := h.login(t, "010-1234-5678", "secret123")

	second, err := h.refresh.Rotate(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshJTI, second.RefreshJTI)

	claims, err := h.validator.ValidateAccess(ctx, second.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
	require.Equal(t, []string{"ROLE_MEMBER"}, claims.Roles)

	_, err = h.refresh.Rotate(ctx, first.RefreshToken)
	require.ErrorIs(t, err, authsdk.ErrRevoked, "a rotated token is dead")

	third, err := h.refresh.Rotate(ctx, second.RefreshToken)
	require.NoError(t, err)

	_, err = h.refresh.Rotate(ctx, second.RefreshToken)
	require.ErrorIs(t, err, authsdk.ErrRevoked, "the successor also rotates exactly once")

	_, err = h.validator.ValidateAccess(ctx, first.AccessToken)
	require.NoError(t, err, "access tokens are not individually revocable")

	_, err = h.refresh.Rotate(ctx, third.AccessToken)
	require.ErrorIs(t, err, authsdk.ErrWrongType)
}

func TestRotate_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	for name, factory := range map[string]registryFactory{
		"memory": memoryRegistry,
		"redis":  redisRegistry,
		"sqlite": sqliteRegistry,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, factory)
			ctx := context.Background()

			pair, err := h.issuer.IssuePair(alice)
			require.NoError(t, err)

			const workers = 24
			var (
				wg       sync.WaitGroup
				start    = make(chan struct{})
				wins     atomic.Int32
				revoked  atomic.Int32
				other    atomic.Int32
				newPairs = make(chan string, workers)
			)
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					next, err := h.refresh.Rotate(ctx, pair.RefreshToken)
					switch {
					case err == nil:
						wins.Add(1)
						newPairs <- next.RefreshToken
					case authsdk.KindOf(err) == authsdk.KindRevoked:
						revoked.Add(1)
					default:
						other.Add(1)
					}
				}()
			}
			close(start)
			wg.Wait()
			close(newPairs)

			require.EqualValues(t, 1, wins.Load())
			require.EqualValues(t, workers-1, revoked.Load())
			require.Zero(t, other.Load())

			// The winner's successor is live.
			_, err = h.refresh.Rotate(ctx, <-newPairs)
			require.NoError(t, err)
		})
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()
	h := newHarness(t, sqliteRegistry)
	ctx := context.Background()

	pair, err := h.issuer.IssuePair(alice)
	require.NoError(t, err)

	require.NoError(t, h.refresh.Logout(ctx, pair.RefreshToken))

	_, err = h.refresh.Rotate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, authsdk.ErrRevoked)

	err = h.refresh.Logout(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, authsdk.ErrRevoked)

	entry, err := h.store.Revocations().GetRevocation(ctx, pair.RefreshJTI)
	require.NoError(t, err)
	require.Equal(t, domain.ReasonLogout, entry.Reason)
	require.Equal(t, alice.ID, entry.Subject)
	require.True(t, pair.RefreshExpiresAt.Equal(entry.ExpiresAt))

	require.ErrorIs(t, h.refresh.Logout(ctx, pair.AccessToken), authsdk.ErrWrongType)
	require.ErrorIs(t, h.refresh.Logout(ctx, "garbage"), authsdk.ErrMalformed)
}

func TestRotate_ReplayWithinClockLeeway(t *testing.T) {
	t.Parallel()

	const leeway = time.Minute

	for _, backend := range []string{"memory", "redis", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			mr := miniredis.RunT(t)
			factory := map[string]registryFactory{
				"memory": memoryRegistry,
				"redis":  redisRegistryOn(mr),
				"sqlite": sqliteRegistry,
			}[backend]

			h := newHarness(t, factory, withLeeway(leeway))
			ctx := context.Background()

			advance := func(d time.Duration) {
				h.clock.Advance(d)
				mr.FastForward(d)
				_, err := h.registry.Prune(ctx, h.clock.Now())
				require.NoError(t, err)
			}

			pair, err := h.issuer.IssuePair(alice)
			require.NoError(t, err)
			_, err = h.refresh.Rotate(ctx, pair.RefreshToken)
			require.NoError(t, err)

			// Past exp but inside the leeway the token still verifies, so
			// its revocation must still be on record.
			advance(testRefreshTTL + leeway/2)
			_, err = h.refresh.Rotate(ctx, pair.RefreshToken)
			require.ErrorIs(t, err, authsdk.ErrRevoked)

			advance(leeway)
			_, err = h.refresh.Rotate(ctx, pair.RefreshToken)
			require.ErrorIs(t, err, authsdk.ErrExpired)
		})
	}
}

func TestLogout_RetentionCoversLeeway(t *testing.T) {
	t.Parallel()

	const leeway = 2 * time.Minute
	h := newHarness(t, sqliteRegistry, withLeeway(leeway))
	ctx := context.Background()

	pair, err := h.issuer.IssuePair(alice)
	require.NoError(t, err)
	require.NoError(t, h.refresh.Logout(ctx, pair.RefreshToken))

	entry, err := h.store.Revocations().GetRevocation(ctx, pair.RefreshJTI)
	require.NoError(t, err)
	require.True(t, pair.RefreshExpiresAt.Add(leeway).Equal(entry.ExpiresAt))
}

func TestRotate_ExpiredRefreshToken(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)

	pair, err := h.issuer.IssuePair(alice)
	require.NoError(t, err)

	h.clock.Advance(testRefreshTTL + time.Second)
	_, err = h.refresh.Rotate(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, authsdk.ErrExpired)
}

// cancellingRegistry cancels the request context as the revoke write
// starts, the way a client hanging up mid-request would.
type cancellingRegistry struct {
	revocation.Registry
	cancel  context.CancelFunc
	sawDone atomic.Bool
}

func (r *cancellingRegistry) Revoke(ctx context.Context, e domain.RevocationEntry) (bool, error) {
	r.cancel()
	if ctx.Err() != nil {
		r.sawDone.Store(true)
	}
	return r.Registry.Revoke(ctx, e)
}

func TestRotate_RevocationSurvivesCancellation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := &cancellingRegistry{Registry: h.registry, cancel: cancel}
	h.refresh.Registry = reg

	pair, err := h.issuer.IssuePair(alice)
	require.NoError(t, err)

	_, err = h.refresh.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.False(t, reg.sawDone.Load(), "the revoke write is detached from the request")

	revoked, err := h.registry.IsRevoked(context.Background(), pair.RefreshJTI)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRotate_RegistryOutage(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)

	pair, err := h.issuer.IssuePair(alice)
	require.NoError(t, err)

	h.refresh.Registry = failingRegistry{err: revocation.ErrUnavailable}
	_, err = h.refresh.Rotate(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, authsdk.ErrUnavailable)
}

package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/store"
	"github.com/silverbridge/backend/pkg/authsdk"
)

func TestVerify_Credentials(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()

	u := h.join(t, "이보호", "010-2222-3333", "caregiver1", domain.RoleNOK)

	p, err := h.creds.Verify(ctx, "010-2222-3333", "caregiver1")
	require.NoError(t, err)
	require.Equal(t, u.ID, p.ID)
	require.Equal(t, []string{"ROLE_NOK"}, p.Roles)

	_, wrongErr := h.creds.Verify(ctx, "010-2222-3333", "caregiver2")
	require.ErrorIs(t, wrongErr, authsdk.ErrInvalidCredentials)

	_, unknownErr := h.creds.Verify(ctx, "010-9999-9999", "caregiver1")
	require.ErrorIs(t, unknownErr, authsdk.ErrInvalidCredentials)

	require.Equal(t, authsdk.KindOf(wrongErr), authsdk.KindOf(unknownErr), "both failures look the same")
}

// lookupStore fails or stalls account lookups.
type lookupStore struct {
	store.Store
	users store.Users
}

func (s lookupStore) Users() store.Users { return s.users }

type brokenUsers struct {
	store.Users
	err   error
	stall bool
}

func (u brokenUsers) GetUserByPhoneNumber(ctx context.Context, _ string) (domain.User, error) {
	if u.stall {
		<-ctx.Done()
		return domain.User{}, ctx.Err()
	}
	return domain.User{}, u.err
}

func TestVerify_LookupFailureIsUnavailable(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()

	h.creds.Store = lookupStore{Store: h.store, users: brokenUsers{err: errors.New("disk I/O error")}}
	_, err := h.creds.Verify(ctx, "010-1111-1111", "whatever1")
	require.ErrorIs(t, err, authsdk.ErrUnavailable)

	h.creds.Store = lookupStore{Store: h.store, users: brokenUsers{stall: true}}
	h.creds.LookupTimeout = 20 * time.Millisecond
	_, err = h.creds.Verify(ctx, "010-1111-1111", "whatever1")
	require.ErrorIs(t, err, authsdk.ErrUnavailable)
}

func TestVerify_LatencyParity(t *testing.T) {
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()
	h.join(t, "박시간", "010-4444-5555", "timing123", domain.RoleMember)

	median := func(phone, password string) time.Duration {
		samples := make([]time.Duration, 5)
		for i := range samples {
			start := time.Now()
			_, err := h.creds.Verify(ctx, phone, password)
			samples[i] = time.Since(start)
			require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
		}
		slices.Sort(samples)
		return samples[len(samples)/2]
	}

	wrongSecret := median("010-4444-5555", "timing999")
	unknownUser := median("010-0000-0001", "timing999")

	// Both paths are dominated by one argon2id evaluation.
	ratio := float64(unknownUser) / float64(wrongSecret)
	require.Greater(t, ratio, 0.33, "unknown=%s wrong=%s", unknownUser, wrongSecret)
	require.Less(t, ratio, 3.0, "unknown=%s wrong=%s", unknownUser, wrongSecret)
}

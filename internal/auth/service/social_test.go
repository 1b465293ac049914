package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/kakao"
	"github.com/silverbridge/backend/pkg/authsdk"
	"github.com/silverbridge/backend/pkg/jwtx"
)

// fakeKakao answers FetchProfile from a fixed token table.
type fakeKakao map[string]int64

func (f fakeKakao) FetchProfile(_ context.Context, token string) (kakao.Profile, error) {
	if token == "kakao-down" {
		return kakao.Profile{}, kakao.ErrUnavailable
	}
	id, ok := f[token]
	if !ok {
		return kakao.Profile{}, kakao.ErrTokenRejected
	}
	p := kakao.Profile{ID: id}
	p.Properties.Nickname = "라이언"
	return p, nil
}

var kakaoAccounts = fakeKakao{"kakao-ryan": 7, "kakao-apeach": 8}

func newSocialService(h *harness) *SocialAuthService {
	return &SocialAuthService{
		Store:         h.store,
		Kakao:         kakaoAccounts,
		Issuer:        h.issuer,
		Validator:     h.validator,
		Registry:      h.registry,
		RevokeTimeout: 5 * time.Second,
		Now:           h.clock.Now,
	}
}

func (h *harness) tempToken(t *testing.T, s *SocialAuthService, kakaoToken string) string {
	t.Helper()
	res, err := s.LoginOrJoin(context.Background(), kakaoToken)
	require.NoError(t, err)
	require.False(t, res.Registered)
	return res.TempToken
}

var ryanProfile = FinalRegisterParams{Name: "라이언", PhoneNumber: "010-5555-0007", Birth: "1948-11-02", Region: "Busan", Role: "MEMBER"}

func TestLoginOrJoin_NewKakaoUser(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()
	social := newSocialService(h)

	res, err := social.LoginOrJoin(ctx, " kakao-ryan ")
	require.NoError(t, err)
	require.False(t, res.Registered)
	require.Empty(t, res.Pair.AccessToken)
	require.Equal(t, "라이언", res.Nickname)
	require.True(t, h.clock.Now().Add(jwtx.DefaultTempTokenTTL).Equal(res.TempExpiresAt))

	claims, err := h.validator.Validate(ctx, res.TempToken, jwtx.TokenTypeTemp)
	require.NoError(t, err)
	require.Equal(t, "kakao:7", claims.Subject)
	require.Equal(t, []string{"ROLE_GUEST"}, claims.Roles)
	require.Equal(t, "라이언", claims.Nickname)

	_, err = h.validator.ValidateAccess(ctx, res.TempToken)
	require.ErrorIs(t, err, authsdk.ErrWrongType, "the gate refuses temp tokens")

	_, err = h.refresh.Rotate(ctx, res.TempToken)
	require.ErrorIs(t, err, authsdk.ErrWrongType)
}

func TestLoginOrJoin_Failures(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	social := newSocialService(h)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"blank", "  ", ErrInvalidRequest},
		{"rejected by kakao", "kakao-stale", ErrInvalidCredentials},
		{"kakao down", "kakao-down", ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := social.LoginOrJoin(context.Background(), tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCompleteRegistration_CreatesAccount(t *testing.T) {
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
			social := newSocialService(h)

			temp := h.tempToken(t, social, "kakao-ryan")

			user, pair, err := social.CompleteRegistration(ctx, temp, ryanProfile)
			require.NoError(t, err)
			require.Equal(t, domain.RoleMember, user.Role)
			require.True(t, user.Social)
			require.NotNil(t, user.KakaoID)
			require.EqualValues(t, 7, *user.KakaoID)

			claims, err := h.validator.ValidateAccess(ctx, pair.AccessToken)
			require.NoError(t, err)
			require.Equal(t, user.ID, claims.Subject)

			_, _, err = social.CompleteRegistration(ctx, temp, ryanProfile)
			require.ErrorIs(t, err, authsdk.ErrRevoked, "temp tokens are single use")

			res, err := social.LoginOrJoin(ctx, "kakao-ryan")
			require.NoError(t, err)
			require.True(t, res.Registered)
			require.Empty(t, res.TempToken)
			claims, err = h.validator.ValidateAccess(ctx, res.Pair.AccessToken)
			require.NoError(t, err)
			require.Equal(t, user.ID, claims.Subject)

			_, err = h.creds.Verify(ctx, ryanProfile.PhoneNumber, "anything1")
			require.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestCompleteRegistration_TokenChecks(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()
	social := newSocialService(h)

	h.join(t, "김앨리스", "010-1234-5678", "secret123", domain.RoleMember)
	pair := h.login(t, "010-1234-5678", "secret123")

	_, _, err := social.CompleteRegistration(ctx, pair.AccessToken, ryanProfile)
	require.ErrorIs(t, err, authsdk.ErrWrongType)
	_, _, err = social.CompleteRegistration(ctx, pair.RefreshToken, ryanProfile)
	require.ErrorIs(t, err, authsdk.ErrWrongType)
	_, _, err = social.CompleteRegistration(ctx, "not-a-jwt", ryanProfile)
	require.ErrorIs(t, err, authsdk.ErrMalformed)

	temp := h.tempToken(t, social, "kakao-ryan")

	bad := ryanProfile
	bad.Role = "GUEST"
	_, _, err = social.CompleteRegistration(ctx, temp, bad)
	require.ErrorIs(t, err, ErrInvalidRequest)

	h.clock.Advance(jwtx.DefaultTempTokenTTL + time.Second)
	_, _, err = social.CompleteRegistration(ctx, temp, ryanProfile)
	require.ErrorIs(t, err, authsdk.ErrExpired, "an invalid body did not spend the token, expiry did")
}

func TestCompleteRegistration_LinksExistingAccount(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()
	social := newSocialService(h)
	sender := &captureSender{}
	phones := newPhoneService(h, sender)

	const phone = "010-1234-5678"
	member := h.join(t, "김앨리스", phone, "secret123", domain.RoleNOK)
	link := FinalRegisterParams{Name: "앨리스", PhoneNumber: phone, Role: "MEMBER"}

	_, _, err := social.CompleteRegistration(ctx, h.tempToken(t, social, "kakao-apeach"), link)
	require.ErrorIs(t, err, ErrPhoneNotVerified)

	_, err = phones.SendCode(ctx, phone)
	require.NoError(t, err)
	require.NoError(t, phones.VerifyCode(ctx, phone, sender.code(t, phone)))

	user, _, err := social.CompleteRegistration(ctx, h.tempToken(t, social, "kakao-apeach"), link)
	require.NoError(t, err)
	require.Equal(t, member.ID, user.ID)
	require.Equal(t, domain.RoleNOK, user.Role, "linking keeps the join role")
	require.Equal(t, "앨리스", user.Name)

	stored, err := h.store.Users().GetUserByKakaoID(ctx, 8)
	require.NoError(t, err)
	require.Equal(t, member.ID, stored.ID)
	require.True(t, stored.Social)

	h.login(t, phone, "secret123")

	_, _, err = social.CompleteRegistration(ctx, h.tempToken(t, social, "kakao-ryan"), link)
	require.ErrorIs(t, err, ErrKakaoLinked, "phone already linked to another kakao account")
}

func TestCompleteRegistration_KakaoAlreadyLinked(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()
	social := newSocialService(h)

	first := h.tempToken(t, social, "kakao-ryan")
	second := h.tempToken(t, social, "kakao-ryan")

	_, _, err := social.CompleteRegistration(ctx, first, ryanProfile)
	require.NoError(t, err)

	other := ryanProfile
	other.PhoneNumber = "010-5555-0008"
	_, _, err = social.CompleteRegistration(ctx, second, other)
	require.ErrorIs(t, err, ErrKakaoLinked)
}

func TestCompleteRegistration_RequireVerification(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	social := newSocialService(h)
	social.RequireVerification = true

	_, _, err := social.CompleteRegistration(context.Background(), h.tempToken(t, social, "kakao-ryan"), ryanProfile)
	require.ErrorIs(t, err, ErrPhoneNotVerified)
}

func TestCompleteRegistration_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	for name, factory := range map[string]registryFactory{
		"memory": memoryRegistry,
		"redis":  redisRegistry,
		"sqlite": sqliteRegistry,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, factory)
			social := newSocialService(h)
			temp := h.tempToken(t, social, "kakao-ryan")

			const callers = 8
			var (
				wg       sync.WaitGroup
				won      atomic.Int32
				replayed atomic.Int32
			)
			for range callers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _, err := social.CompleteRegistration(context.Background(), temp, ryanProfile)
					switch {
					case err == nil:
						won.Add(1)
					case authsdk.KindOf(err) == authsdk.KindRevoked:
						replayed.Add(1)
					}
				}()
			}
			wg.Wait()

			require.EqualValues(t, 1, won.Load())
			require.EqualValues(t, callers-1, replayed.Load())
		})
	}
}

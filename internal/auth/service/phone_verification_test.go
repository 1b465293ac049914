package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/silverbridge/backend/internal/auth/domain"
)

// captureSender records every message instead of sending it.
type captureSender struct {
	mu   sync.Mutex
	sent map[string]string
}

var codePattern = regexp.MustCompile(`\[(\d{6})\]`)

func (s *captureSender) SendSMS(_ context.Context, phone, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = map[string]string{}
	}
	s.sent[phone] = text
	return nil
}

func (s *captureSender) code(t *testing.T, phone string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	m := codePattern.FindStringSubmatch(s.sent[phone])
	require.Len(t, m, 2, "message %q carries a code", s.sent[phone])
	return m[1]
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func newPhoneService(h *harness, sender SMSSender) *PhoneVerificationService {
	return &PhoneVerificationService{
		Store:          h.store,
		Sender:         sender,
		CodeTTL:        3 * time.Minute,
		MaxAttempts:    3,
		VerifiedWindow: 30 * time.Minute,
		Now:            h.clock.Now,
	}
}

func TestPhoneVerification_JoinFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()
	sender := &captureSender{}
	phones := newPhoneService(h, sender)
	h.users.RequireVerification = true

	const phone = "010-7777-8888"
	join := JoinParams{Name: "최회원", PhoneNumber: phone, Password: "member123", Role: "MEMBER"}

	_, err := h.users.Register(ctx, join)
	require.ErrorIs(t, err, ErrPhoneNotVerified)

	ttl, err := phones.SendCode(ctx, phone)
	require.NoError(t, err)
	require.Equal(t, 3*time.Minute, ttl)

	_, err = h.users.Register(ctx, join)
	require.ErrorIs(t, err, ErrPhoneNotVerified, "sent but not verified")

	h.clock.Advance(time.Minute)
	require.NoError(t, phones.VerifyCode(ctx, phone, sender.code(t, phone)))
	require.NoError(t, phones.VerifyCode(ctx, phone, sender.code(t, phone)), "verifying again is harmless")

	u, err := h.users.Register(ctx, join)
	require.NoError(t, err)
	require.Equal(t, domain.RoleMember, u.Role)

	_, err = h.store.PhoneVerifications().GetPhoneVerification(ctx, phone)
	require.Error(t, err, "join consumes the verification")
}

func TestPhoneVerification_WrongCodesLockOut(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()
	sender := &captureSender{}
	phones := newPhoneService(h, sender)

	const phone = "010-3333-4444"
	_, err := phones.SendCode(ctx, phone)
	require.NoError(t, err)
	code := sender.code(t, phone)

	require.ErrorIs(t, phones.VerifyCode(ctx, phone, wrongCode(code)), ErrVerificationFailed)
	require.ErrorIs(t, phones.VerifyCode(ctx, phone, wrongCode(code)), ErrVerificationFailed)
	require.ErrorIs(t, phones.VerifyCode(ctx, phone, wrongCode(code)), ErrTooManyAttempts)
	require.ErrorIs(t, phones.VerifyCode(ctx, phone, code), ErrTooManyAttempts, "locked even for the right code")

	// A fresh send resets the counter.
	_, err = phones.SendCode(ctx, phone)
	require.NoError(t, err)
	require.NoError(t, phones.VerifyCode(ctx, phone, sender.code(t, phone)))
}

func TestPhoneVerification_Expiry(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()
	sender := &captureSender{}
	phones := newPhoneService(h, sender)

	const phone = "010-5555-6666"
	_, err := phones.SendCode(ctx, phone)
	require.NoError(t, err)

	h.clock.Advance(3 * time.Minute)
	require.ErrorIs(t, phones.VerifyCode(ctx, phone, sender.code(t, phone)), ErrVerificationFailed)

	require.ErrorIs(t, phones.VerifyCode(ctx, "010-0000-0000", "123456"), ErrVerificationFailed, "nothing sent")
	require.ErrorIs(t, phones.VerifyCode(ctx, "not-a-phone", "123456"), ErrInvalidRequest)

	_, err = phones.SendCode(ctx, "02-123-4567")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPhoneVerification_VerifiedWindowEnds(t *testing.T) {
	t.Parallel()
	h := newHarness(t, memoryRegistry)
	ctx := context.Background()
	sender := &captureSender{}
	phones := newPhoneService(h, sender)
	h.users.RequireVerification = true

	const phone = "010-1212-3434"
	_, err := phones.SendCode(ctx, phone)
	require.NoError(t, err)
	require.NoError(t, phones.VerifyCode(ctx, phone, sender.code(t, phone)))

	h.clock.Advance(31 * time.Minute)
	_, err = h.users.Register(ctx, JoinParams{Name: "늦은", PhoneNumber: phone, Password: "late12345", Role: "NOK"})
	require.ErrorIs(t, err, ErrPhoneNotVerified)
}

func TestLogSMSSender(t *testing.T) {
	t.Parallel()
	require.NoError(t, LogSMSSender{}.SendSMS(context.Background(), "010-1234-5678", "hello"))
}

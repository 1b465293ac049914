package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/store"
	"github.com/silverbridge/backend/pkg/slogx"
)

const (
	DefaultCodeTTL        = 3 * time.Minute
	DefaultMaxAttempts    = 5
	DefaultVerifiedWindow = 30 * time.Minute

	codeIssuer = "SilverBridge"
)

// SMSSender delivers a text message. The gateway integration lives outside
// this service.
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, text string) error
}

// LogSMSSender writes messages to the log instead of sending them. It is
// the sender for development and tests.
type LogSMSSender struct {
	Logger *slog.Logger
}

func (s LogSMSSender) SendSMS(ctx context.Context, phoneNumber, text string) error {
	l := s.Logger
	if l == nil {
		l = slogx.FromContext(ctx)
	}
	l.Info("sms not delivered (log sender)", slog.String("to", phoneNumber), slog.String("text", text))
	return nil
}

// PhoneVerificationService sends one-time codes and records when a phone
// number has proven it can receive them. Codes are TOTP values over a
// per-send secret with a period equal to the code lifetime.
type PhoneVerificationService struct {
	Store  store.Store
	Sender SMSSender

	CodeTTL        time.Duration
	MaxAttempts    int
	VerifiedWindow time.Duration // how long a verified number may be used to join

	Now func() time.Time
}

func (s *PhoneVerificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PhoneVerificationService) codeTTL() time.Duration {
	if s.CodeTTL < time.Second {
		return DefaultCodeTTL
	}
	return s.CodeTTL
}

func (s *PhoneVerificationService) codeOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.codeTTL() / time.Second),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// SendCode generates a new code for phoneNumber, replacing any earlier one,
// and hands it to the SMS sender. It returns the code lifetime.
func (s *PhoneVerificationService) SendCode(ctx context.Context, phoneNumber string) (time.Duration, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if err := ValidatePhoneNumber(phoneNumber); err != nil {
		return 0, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      codeIssuer,
		AccountName: phoneNumber,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return 0, fmt.Errorf("generate verification secret: %w", err)
	}

	now := s.now()
	code, err := totp.GenerateCodeCustom(key.Secret(), now, s.codeOpts())
	if err != nil {
		return 0, fmt.Errorf("generate verification code: %w", err)
	}

	ttl := s.codeTTL()
	err = s.Store.PhoneVerifications().UpsertPhoneVerification(ctx, domain.PhoneVerification{
		PhoneNumber: phoneNumber,
		Secret:      key.Secret(),
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	})
	if err != nil {
		return 0, err
	}

	if err := s.Sender.SendSMS(ctx, phoneNumber, "[SilverBridge] 인증번호는 ["+code+"] 입니다."); err != nil {
		return 0, fmt.Errorf("send verification sms: %w", err)
	}
	return ttl, nil
}

// VerifyCode checks code against the outstanding verification. Wrong codes
// count against MaxAttempts; once reached the verification is locked until
// a new code is sent.
func (s *PhoneVerificationService) VerifyCode(ctx context.Context, phoneNumber, code string) error {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if err := ValidatePhoneNumber(phoneNumber); err != nil {
		return err
	}

	repo := s.Store.PhoneVerifications()
	v, err := repo.GetPhoneVerification(ctx, phoneNumber)
	if errors.Is(err, store.ErrNotFound) {
		return ErrVerificationFailed
	}
	if err != nil {
		return err
	}

	now := s.now()
	if v.Verified(now) {
		return nil
	}
	if !now.Before(v.ExpiresAt) {
		return fmt.Errorf("%w: code expired", ErrVerificationFailed)
	}

	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if v.Attempts >= maxAttempts {
		return ErrTooManyAttempts
	}

	ok, err := totp.ValidateCustom(strings.TrimSpace(code), v.Secret, now, s.codeOpts())
	if err != nil || !ok {
		attempts, incErr := repo.IncrementAttempts(ctx, phoneNumber)
		if incErr != nil {
			return incErr
		}
		if attempts >= maxAttempts {
			slogx.FromContext(ctx).Warn("phone verification locked", slog.Int("attempts", attempts))
			return ErrTooManyAttempts
		}
		return ErrVerificationFailed
	}

	window := s.VerifiedWindow
	if window <= 0 {
		window = DefaultVerifiedWindow
	}
	return repo.MarkVerified(ctx, phoneNumber, now, now.Add(window))
}

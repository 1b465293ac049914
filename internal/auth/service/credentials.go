package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/silverbridge/backend/internal/auth/store"
	"github.com/silverbridge/backend/pkg/cryptox"
	"github.com/silverbridge/backend/pkg/jwtx"
	"github.com/silverbridge/backend/pkg/slogx"
)

const DefaultAccountLookupTimeout = 2 * time.Second

// CredentialVerifier checks a phone number and password against the
// stored argon2id hash.
type CredentialVerifier struct {
	Store         store.Store
	LookupTimeout time.Duration

	// dummyHash is verified against when the account does not exist so an
	// unknown phone number costs the same as a wrong password.
	dummyHash string
}

func NewCredentialVerifier(s store.Store, lookupTimeout time.Duration) (*CredentialVerifier, error) {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultAccountLookupTimeout
	}

	dummy, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return nil, err
	}
	dummyHash, err := cryptox.HashPassword(dummy)
	if err != nil {
		return nil, fmt.Errorf("hash dummy credential: %w", err)
	}

	return &CredentialVerifier{
		Store:         s,
		LookupTimeout: lookupTimeout,
		dummyHash:     dummyHash,
	}, nil
}

// Verify resolves the account behind phoneNumber and checks password. Both
// an unknown phone number and a wrong password return ErrInvalidCredentials;
// a failed or slow lookup returns ErrUnavailable.
func (v *CredentialVerifier) Verify(ctx context.Context, phoneNumber, password string) (jwtx.Principal, error) {
	l := slogx.FromContext(ctx)

	lookupCtx, cancel := context.WithTimeout(ctx, v.LookupTimeout)
	defer cancel()

	user, err := v.Store.Users().GetUserByPhoneNumber(lookupCtx, phoneNumber)
	switch {
	case errors.Is(err, store.ErrNotFound):
		_ = cryptox.VerifyPassword(password, v.dummyHash)
		return jwtx.Principal{}, fmt.Errorf("%w: unknown account", ErrInvalidCredentials)
	case err != nil:
		l.Error("account lookup failed", slog.Any("error", err))
		return jwtx.Principal{}, fmt.Errorf("%w: account lookup: %w", ErrUnavailable, err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrInvalidHash) {
			l.Error("stored password hash is unreadable", slog.String("user_id", user.ID))
		}
		return jwtx.Principal{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	return user.Principal(), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/silverbridge/backend/internal/auth/revocation"
	"github.com/silverbridge/backend/pkg/cryptox"
	"github.com/silverbridge/backend/pkg/jwtx"
	"github.com/silverbridge/backend/pkg/slogx"
)

const DefaultRegistryTimeout = 500 * time.Millisecond

// TokenValidator turns a bearer string into trusted claims. Checks run in a
// fixed order: signature, time window, token type and, for single-use
// refresh and temp tokens, the revocation registry. It never writes.
type TokenValidator struct {
	KeyManager      *jwtx.KeyManager
	Registry        revocation.Registry
	RegistryTimeout time.Duration

	// FailOpen accepts single-use tokens when the registry cannot be reached.
	// The default refuses them with ErrUnavailable.
	FailOpen bool
}

// ValidateAccess is the request gate entry point.
func (v *TokenValidator) ValidateAccess(ctx context.Context, token string) (*jwtx.Claims, error) {
	return v.Validate(ctx, token, jwtx.TokenTypeAccess)
}

func (v *TokenValidator) Validate(ctx context.Context, token string, expected jwtx.TokenType) (*jwtx.Claims, error) {
	claims, err := v.KeyManager.Verifier.Verify(token)
	if err != nil {
		return nil, verifyFailure(err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrMalformed)
	}
	if !claims.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown typ %q", ErrMalformed, claims.Type)
	}
	if claims.Type != expected {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongType, claims.Type, expected)
	}

	if !singleUse(expected) {
		return claims, nil
	}

	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrMalformed)
	}

	revoked, err := v.isRevoked(ctx, claims.ID)
	if err != nil {
		l := slogx.FromContext(ctx).With(
			slog.String("token_fp", cryptox.FingerprintToken(token)),
			slog.Any("error", err),
		)
		if v.FailOpen {
			l.Warn("revocation registry unavailable, accepting token", slog.String("typ", string(claims.Type)))
			return claims, nil
		}
		l.Error("revocation registry unavailable")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: jti %s", ErrRevoked, claims.ID)
	}

	return claims, nil
}

// singleUse reports whether tokens of type t are tracked in the registry.
// Access tokens are not; they live out their short lifetime.
func singleUse(t jwtx.TokenType) bool {
	return t == jwtx.TokenTypeRefresh || t == jwtx.TokenTypeTemp
}

// RetainUntil is the last instant claims could still pass Validate. A
// revocation entry for the token must be kept at least that long.
func (v *TokenValidator) RetainUntil(claims *jwtx.Claims) time.Time {
	return claims.ExpiresAtTime().Add(v.KeyManager.Verifier.Leeway())
}

func (v *TokenValidator) isRevoked(ctx context.Context, jti string) (bool, error) {
	timeout := v.RegistryTimeout
	if timeout <= 0 {
		timeout = DefaultRegistryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return v.Registry.IsRevoked(ctx, jti)
}

// verifyFailure maps jwtx verification errors onto failure kinds.
func verifyFailure(err error) error {
	switch {
	case errors.Is(err, jwtx.ErrInvalidSig),
		errors.Is(err, jwtx.ErrUnknownKID),
		errors.Is(err, jwtx.ErrAlgMismatch):
		return fmt.Errorf("%w: %w", ErrTampered, err)
	case errors.Is(err, jwtx.ErrExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}

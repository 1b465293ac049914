// Package revocation tracks identifiers of single-use tokens that must
// never be accepted again: refresh tokens that were rotated away or logged
// out, and social sign-up temp tokens already spent on a registration.
//
// Every backend offers the same guarantee: Revoke is a single conditional
// write per jti, so when several callers race to revoke one token exactly
// one of them observes won == true. Once Revoke returns, IsRevoked reports
// true to every caller.
package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
)

// ErrUnavailable wraps backend failures. Callers treat it as "state
// unknown", never as "not revoked".
var ErrUnavailable = errors.New("revocation: registry unavailable")

// MinRetention is the shortest time an entry is kept, even when the token
// it blocks has already expired.
const MinRetention = time.Second

type Registry interface {
	// Revoke records e. won reports whether this call performed the
	// transition; false means the jti was already revoked.
	Revoke(ctx context.Context, e domain.RevocationEntry) (won bool, err error)

	IsRevoked(ctx context.Context, jti string) (bool, error)

	// Prune drops entries whose ExpiresAt is at or before now.
	Prune(ctx context.Context, now time.Time) (int, error)
}

// retention is how long e must be remembered, measured from now.
func retention(e domain.RevocationEntry, now time.Time) time.Duration {
	ttl := e.ExpiresAt.Sub(now)
	if ttl < MinRetention {
		return MinRetention
	}
	return ttl
}

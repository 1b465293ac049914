package store

import (
	"context"
	"fmt"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/revocation"
)

// RevocationRegistry adapts the revoked_tokens table to revocation.Registry.
type RevocationRegistry struct {
	store Store
}

var _ revocation.Registry = (*RevocationRegistry)(nil)

func NewRevocationRegistry(s Store) *RevocationRegistry {
	return &RevocationRegistry{store: s}
}

func (r *RevocationRegistry) Revoke(ctx context.Context, e domain.RevocationEntry) (bool, error) {
	if floor := e.RevokedAt.Add(revocation.MinRetention); e.ExpiresAt.Before(floor) {
		e.ExpiresAt = floor
	}

	won, err := r.store.Revocations().InsertRevocation(ctx, e)
	if err != nil {
		return false, fmt.Errorf("%w: %w", revocation.ErrUnavailable, err)
	}
	return won, nil
}

func (r *RevocationRegistry) IsRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := r.store.Revocations().IsRevoked(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("%w: %w", revocation.ErrUnavailable, err)
	}
	return revoked, nil
}

func (r *RevocationRegistry) Prune(ctx context.Context, now time.Time) (int, error) {
	n, err := r.store.Revocations().DeleteExpiredRevocations(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", revocation.ErrUnavailable, err)
	}
	return int(n), nil
}

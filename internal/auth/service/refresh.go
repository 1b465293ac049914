package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/revocation"
	"github.com/silverbridge/backend/pkg/cryptox"
	"github.com/silverbridge/backend/pkg/jwtx"
	"github.com/silverbridge/backend/pkg/slogx"
)

// RefreshCoordinator exchanges refresh tokens for new pairs and revokes
// them on logout. Each refresh token is good for exactly one rotation.
type RefreshCoordinator struct {
	Validator *TokenValidator
	Issuer    *TokenIssuer
	Registry  revocation.Registry

	// RevokeTimeout bounds the registry write. Defaults to DefaultRegistryTimeout.
	RevokeTimeout time.Duration

	Now func() time.Time
}

func (c *RefreshCoordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Rotate validates refreshToken, revokes it and returns a new pair. When
// several requests race on one token, only the one whose revoke write wins
// gets a pair; the rest see ErrRevoked.
func (c *RefreshCoordinator) Rotate(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	claims, err := c.Validator.Validate(ctx, refreshToken, jwtx.TokenTypeRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	won, err := c.revoke(ctx, claims, domain.ReasonRotated)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !won {
		slogx.FromContext(ctx).Warn("refresh token replayed",
			slog.String("user_id", claims.Subject),
			slog.String("jti", claims.ID),
			slog.String("token_fp", cryptox.FingerprintToken(refreshToken)),
		)
		return domain.TokenPair{}, fmt.Errorf("%w: jti %s already rotated", ErrRevoked, claims.ID)
	}

	pair, err := c.Issuer.IssuePair(claims.Principal())
	if err != nil {
		return domain.TokenPair{}, err
	}

	slogx.FromContext(ctx).Info("refresh token rotated",
		slog.String("user_id", claims.Subject),
		slog.String("old_jti", claims.ID),
		slog.String("new_jti", pair.RefreshJTI),
	)
	return pair, nil
}

// Logout revokes refreshToken. Access tokens already handed out stay valid
// until they expire.
func (c *RefreshCoordinator) Logout(ctx context.Context, refreshToken string) error {
	claims, err := c.Validator.Validate(ctx, refreshToken, jwtx.TokenTypeRefresh)
	if err != nil {
		return err
	}

	won, err := c.revoke(ctx, claims, domain.ReasonLogout)
	if err != nil {
		return err
	}
	if !won {
		return fmt.Errorf("%w: jti %s already revoked", ErrRevoked, claims.ID)
	}

	slogx.FromContext(ctx).Info("refresh token revoked",
		slog.String("user_id", claims.Subject),
		slog.String("jti", claims.ID),
		slog.String("reason", string(domain.ReasonLogout)),
	)
	return nil
}

func (c *RefreshCoordinator) revoke(ctx context.Context, claims *jwtx.Claims, reason domain.RevocationReason) (bool, error) {
	return revokeToken(ctx, c.Registry, c.RevokeTimeout, domain.RevocationEntry{
		JTI:       claims.ID,
		Subject:   claims.Subject,
		Reason:    reason,
		RevokedAt: c.now(),
		ExpiresAt: c.Validator.RetainUntil(claims),
	})
}

// revokeToken writes e on a context that outlives the request, so a client
// disconnecting mid-exchange cannot leave the token usable. won is false
// when another request revoked the jti first.
func revokeToken(ctx context.Context, reg revocation.Registry, timeout time.Duration, e domain.RevocationEntry) (won bool, err error) {
	if timeout <= 0 {
		timeout = DefaultRegistryTimeout
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	won, err = reg.Revoke(writeCtx, e)
	if err != nil {
		slogx.FromContext(ctx).Error("revocation write failed",
			slog.String("jti", e.JTI),
			slog.Any("error", err),
		)
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return won, nil
}

package service

import (
	"fmt"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/pkg/jwtx"
)

// MinRefreshToAccessRatio bounds how long an access token may live
// relative to the refresh token that renews it.
const MinRefreshToAccessRatio = 10

// ValidateTTLs rejects lifetimes where the access token is not clearly
// shorter-lived than the refresh token.
func ValidateTTLs(access, refresh time.Duration) error {
	if access <= 0 || refresh <= 0 {
		return fmt.Errorf("token lifetimes must be positive (access %s, refresh %s)", access, refresh)
	}
	if access*MinRefreshToAccessRatio > refresh {
		return fmt.Errorf("access token lifetime %s must be at most 1/%d of the refresh lifetime %s",
			access, MinRefreshToAccessRatio, refresh)
	}
	return nil
}

// TokenIssuer mints signed access and refresh tokens. It keeps no state
// between calls.
type TokenIssuer struct {
	KeyManager *jwtx.KeyManager
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// TempTTL is the lifetime of social sign-up temp tokens. Defaults to
	// jwtx.DefaultTempTokenTTL.
	TempTTL time.Duration

	// Now is the clock used for iat/nbf/exp. Defaults to time.Now.
	Now func() time.Time
}

func (i *TokenIssuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

func (i *TokenIssuer) IssueAccessToken(p jwtx.Principal) (string, jwtx.Claims, error) {
	claims := jwtx.NewAccessClaims(p, i.AccessTTL, i.Issuer, i.Audience, i.now())
	signed, err := i.KeyManager.Signer.Sign(claims)
	if err != nil {
		return "", jwtx.Claims{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, claims, nil
}

func (i *TokenIssuer) IssueRefreshToken(p jwtx.Principal) (string, jwtx.Claims, error) {
	claims := jwtx.NewRefreshClaims(p, i.RefreshTTL, i.Issuer, i.Audience, i.now())
	signed, err := i.KeyManager.Signer.Sign(claims)
	if err != nil {
		return "", jwtx.Claims{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, claims, nil
}

// IssueTempToken mints the short-lived token that lets a Kakao user who has
// no account finish registration.
func (i *TokenIssuer) IssueTempToken(kakaoID int64, nickname string) (string, jwtx.Claims, error) {
	ttl := i.TempTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultTempTokenTTL
	}
	claims := jwtx.NewTempClaims(domain.GuestPrincipal(kakaoID), nickname, ttl, i.Issuer, i.Audience, i.now())
	signed, err := i.KeyManager.Signer.Sign(claims)
	if err != nil {
		return "", jwtx.Claims{}, fmt.Errorf("sign temp token: %w", err)
	}
	return signed, claims, nil
}

// IssuePair mints a fresh access/refresh pair for p.
func (i *TokenIssuer) IssuePair(p jwtx.Principal) (domain.TokenPair, error) {
	access, accessClaims, err := i.IssueAccessToken(p)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshClaims, err := i.IssueRefreshToken(p)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessJTI:        accessClaims.ID,
		RefreshJTI:       refreshClaims.ID,
		AccessExpiresAt:  accessClaims.ExpiresAtTime(),
		RefreshExpiresAt: refreshClaims.ExpiresAtTime(),
	}, nil
}

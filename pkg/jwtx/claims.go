package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token lifetimes. Services override them through configuration,
// but the access lifetime should stay well below the refresh lifetime.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultTempTokenTTL    = 5 * time.Minute
)

// TokenType marks what a token may be used for. It travels in the "typ"
// claim so an access token can never be replayed as a refresh token.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"

	// TokenTypeTemp is handed to a social login that has no account yet.
	// It is good for one final registration call and nothing else.
	TokenTypeTemp TokenType = "temp"
)

// Valid reports whether t is one of the known token types.
func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeAccess, TokenTypeRefresh, TokenTypeTemp:
		return true
	}
	return false
}

// Principal is the subject a token was issued to: an opaque account id and
// the roles granted at issuance.
type Principal struct {
	ID    string
	Roles []string
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}

// Claims are the claims carried by both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Type is "access", "refresh" or "temp".
	Type TokenType `json:"typ"`

	// Roles granted to the subject, e.g. ["ROLE_MEMBER"].
	Roles []string `json:"roles,omitempty"`

	// Nickname is the social profile name, on temp tokens only.
	Nickname string `json:"nickname,omitempty"`
}

// NewAccessClaims builds claims for a short-lived access token.
func NewAccessClaims(p Principal, ttl time.Duration, issuer string, audience []string, now time.Time) Claims {
	return newClaims(TokenTypeAccess, p, ttl, issuer, audience, now)
}

// NewRefreshClaims builds claims for a refresh token. The jti doubles as the
// revocation key.
func NewRefreshClaims(p Principal, ttl time.Duration, issuer string, audience []string, now time.Time) Claims {
	return newClaims(TokenTypeRefresh, p, ttl, issuer, audience, now)
}

// NewTempClaims builds claims for a temp token issued to a social identity
// that still has to finish registration.
func NewTempClaims(p Principal, nickname string, ttl time.Duration, issuer string, audience []string, now time.Time) Claims {
	c := newClaims(TokenTypeTemp, p, ttl, issuer, audience, now)
	c.Nickname = nickname
	return c
}

func newClaims(typ TokenType, p Principal, ttl time.Duration, issuer string, audience []string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.ID,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Type:  typ,
		Roles: slices.Clone(p.Roles),
	}
}

// NewJTI returns a random UUIDv4 for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// Principal returns the subject identity embedded in the claims.
func (c *Claims) Principal() Principal {
	return Principal{ID: c.Subject, Roles: slices.Clone(c.Roles)}
}

// ExpiresAtTime returns the exp claim or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

package jwtx

import (
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// MinHMACSecretSize is the smallest HS256 secret we accept (RFC 7518 3.2).
const MinHMACSecretSize = 32

// HS256Signer implements the Signer interface using HMAC-SHA256.
type HS256Signer struct {
	kid    string
	secret []byte
}

func newHS256Signer(kid string, secret []byte) (*HS256Signer, error) {
	if kid == "" {
		return nil, errors.New("jwtx: HS256 signer requires a kid")
	}
	if len(secret) < MinHMACSecretSize {
		return nil, fmt.Errorf("jwtx: HS256 secret must be at least %d bytes, got %d", MinHMACSecretSize, len(secret))
	}
	return &HS256Signer{kid: kid, secret: slices.Clone(secret)}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return s.kid }

// Sign serialises the claims and signs them with the shared secret.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.secret)
}

func (s *HS256Signer) VerificationKey() any { return s.secret }

func (s *HS256Signer) PublicJWK() (JWK, bool) { return JWK{}, false }

func (s *HS256Signer) Validate() error {
	if len(s.secret) < MinHMACSecretSize {
		return errors.New("jwtx: HS256 secret too short")
	}
	return nil
}

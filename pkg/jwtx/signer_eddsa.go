package jwtx

import (
	"crypto/ed25519"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/silverbridge/backend/pkg/cryptox"
)

// EdDSASigner signs with an Ed25519 private key. Its public half is
// published in the JWKS.
type EdDSASigner struct {
	kid  string
	priv ed25519.PrivateKey
}

func newEdDSASigner(kid string, pemKey []byte) (*EdDSASigner, error) {
	if kid == "" {
		return nil, errors.New("jwtx: EdDSA signer requires a kid")
	}
	priv, err := cryptox.ParseEd25519PrivateKey(pemKey)
	if err != nil {
		return nil, err
	}
	s := &EdDSASigner{kid: kid, priv: priv}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *EdDSASigner) Alg() string { return AlgorithmEdDSA }
func (s *EdDSASigner) KID() string { return s.kid }

func (s *EdDSASigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.priv)
}

func (s *EdDSASigner) VerificationKey() any { return s.priv.Public() }

func (s *EdDSASigner) PublicJWK() (JWK, bool) {
	return NewEd25519JWK(s.kid, "sig", AlgorithmEdDSA, s.priv.Public().(ed25519.PublicKey)), true
}

func (s *EdDSASigner) Validate() error {
	if len(s.priv) != ed25519.PrivateKeySize {
		return errors.New("jwtx: Ed25519 private key has the wrong size")
	}
	return nil
}

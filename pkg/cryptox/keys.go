package cryptox

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// GenerateEd25519Key generates a new Ed25519 private key and returns it as
// PKCS8 PEM, the format jwtx.NewSignerEdDSA expects.
func GenerateEd25519Key() ([]byte, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate Ed25519 key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// ParseEd25519PrivateKey reads a PKCS8 "PRIVATE KEY" PEM block holding an
// Ed25519 key.
func ParseEd25519PrivateKey(pemBytes []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	switch {
	case block == nil:
		return nil, errors.New("cryptox: no PEM block found")
	case block.Type != "PRIVATE KEY":
		return nil, fmt.Errorf("cryptox: PEM block is %q, Ed25519 keys must be PKCS8 PRIVATE KEY", block.Type)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("cryptox: parse PKCS8: %w", err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("cryptox: PKCS8 key is %T, not Ed25519", parsed)
	}
	return key, nil
}

// GenerateHMACSecret returns a random HS256 secret, base64 encoded the way
// AUTH_JWT_SECRET expects it.
func GenerateHMACSecret() (string, error) {
	buf := make([]byte, TokenSize256)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// DecodeSecret decodes a base64 secret. Standard and URL alphabets are both
// accepted, padded or not, since operators paste secrets from many tools.
func DecodeSecret(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("cryptox: empty secret")
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("cryptox: secret is not valid base64")
}

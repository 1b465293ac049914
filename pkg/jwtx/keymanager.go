package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/silverbridge/backend/pkg/cryptox"
)

// KeyManager bundles the process-wide signing key with the KeySet and
// Verifier built around it. It is constructed once at startup and never
// mutated afterwards; rotating keys means redeploying with a new kid and
// keeping the old secret in RetiredSecrets until its tokens expire.
type KeyManager struct {
	Signer   Signer
	KeySet   *KeySet
	Verifier *Verifier

	algorithm string
}

// KeyManagerOptions configures the KeyManager.
type KeyManagerOptions struct {
	// Algorithm is "HS256" or "EdDSA".
	Algorithm string

	// KeyID goes into the "kid" header of every signed token.
	KeyID string

	// Secret is the raw HMAC secret (HS256 only).
	Secret []byte

	// PrivateKeyPEM is a PKCS8 Ed25519 key (EdDSA only). When empty an
	// ephemeral key is generated and tokens die with the process.
	PrivateKeyPEM []byte

	// RetiredSecrets are verify-only HS256 keys by kid.
	RetiredSecrets map[string][]byte

	Issuer   string
	Audience []string
	Leeway   time.Duration
	Now      func() time.Time
}

// NewKeyManager loads the signing key described by opts and wires the
// matching KeySet and Verifier.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}

	var (
		signer Signer
		err    error
	)
	switch opts.Algorithm {
	case AlgorithmHS256:
		signer, err = NewSignerHS256(opts.KeyID, opts.Secret)
	case AlgorithmEdDSA:
		pemKey := opts.PrivateKeyPEM
		if len(pemKey) == 0 {
			pemKey, err = cryptox.GenerateEd25519Key()
			if err != nil {
				return nil, fmt.Errorf("jwtx: generate ephemeral EdDSA key: %w", err)
			}
		}
		signer, err = NewSignerEdDSA(opts.KeyID, pemKey)
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: HS256, EdDSA)", opts.Algorithm)
	}
	if err != nil {
		return nil, err
	}

	keyset := NewKeySet()
	if err := keyset.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("jwtx: add signer to keyset: %w", err)
	}
	for kid, secret := range opts.RetiredSecrets {
		if err := keyset.AddHMACKey(kid, secret); err != nil {
			return nil, fmt.Errorf("jwtx: add retired key: %w", err)
		}
	}

	return &KeyManager{
		Signer: signer,
		KeySet: keyset,
		Verifier: NewVerifier(keyset, VerifyOptions{
			Issuer:   opts.Issuer,
			Audience: opts.Audience,
			Leeway:   opts.Leeway,
			Now:      opts.Now,
		}),
		algorithm: opts.Algorithm,
	}, nil
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string {
	return km.algorithm
}

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.Signer != nil && km.KeySet.IsReady()
}

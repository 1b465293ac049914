package jwtx

import (
	"errors"
	"slices"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoKey = errors.New("jwtx: key not found")

type verificationKey struct {
	alg string
	key any // []byte for HS256, ed25519.PublicKey for EdDSA
}

// KeySet maps key ids to verification keys. It is safe for concurrent use;
// the Verifier reads it on every token and startup code is the only writer.
type KeySet struct {
	mu   sync.RWMutex
	keys map[string]verificationKey
	jwks JWKS
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string]verificationKey)}
}

// AddSigner registers the verification half of a signer under its kid.
func (k *KeySet) AddSigner(s Signer) error {
	if err := s.Validate(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.keys[s.KID()]; exists {
		return errors.New("jwtx: duplicate kid " + s.KID())
	}
	k.keys[s.KID()] = verificationKey{alg: s.Alg(), key: s.VerificationKey()}
	if jwk, ok := s.PublicJWK(); ok {
		k.jwks.Keys = append(k.jwks.Keys, jwk)
	}
	return nil
}

// AddHMACKey registers a verify-only HS256 secret, typically a retired key
// whose tokens are still within their lifetime.
func (k *KeySet) AddHMACKey(kid string, secret []byte) error {
	if len(secret) < MinHMACSecretSize {
		return errors.New("jwtx: HS256 secret too short for kid " + kid)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.keys[kid]; exists {
		return errors.New("jwtx: duplicate kid " + kid)
	}
	k.keys[kid] = verificationKey{alg: jwt.SigningMethodHS256.Alg(), key: slices.Clone(secret)}
	return nil
}

// AddJWKS registers the Ed25519 keys of a published key set as verify-only
// keys. Services that only validate tokens build their KeySet this way from
// the auth service's /.well-known/jwks.json.
func (k *KeySet) AddJWKS(set JWKS) error {
	for _, jwk := range set.Keys {
		if jwk.Kid == "" {
			return errors.New("jwtx: jwk without kid")
		}
		if jwk.Alg != "" && jwk.Alg != AlgorithmEdDSA {
			return errors.New("jwtx: unsupported jwk alg " + jwk.Alg)
		}
		pub, err := jwk.PublicKey()
		if err != nil {
			return err
		}

		k.mu.Lock()
		if _, exists := k.keys[jwk.Kid]; exists {
			k.mu.Unlock()
			return errors.New("jwtx: duplicate kid " + jwk.Kid)
		}
		k.keys[jwk.Kid] = verificationKey{alg: AlgorithmEdDSA, key: pub}
		k.jwks.Keys = append(k.jwks.Keys, jwk)
		k.mu.Unlock()
	}
	return nil
}

// Lookup returns the algorithm and key registered for kid.
func (k *KeySet) Lookup(kid string) (string, any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if vk, ok := k.keys[kid]; ok {
		return vk.alg, vk.key, nil
	}
	return "", nil, ErrNoKey
}

// Algorithms returns the distinct algorithms present in the set.
func (k *KeySet) Algorithms() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	var algs []string
	for _, vk := range k.keys {
		if !slices.Contains(algs, vk.alg) {
			algs = append(algs, vk.alg)
		}
	}
	slices.Sort(algs)
	return algs
}

// PublicJWKS returns a snapshot of the publishable keys for HTTP serving.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return JWKS{Keys: append([]JWK{}, k.jwks.Keys...)}
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys) > 0
}

package jwtx

// Supported JWT signing algorithms.
const (
	AlgorithmHS256 = "HS256"
	AlgorithmEdDSA = "EdDSA"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)

	// VerificationKey is the key a Verifier needs to check this signer's
	// tokens: the shared secret for HMAC, the public key otherwise.
	VerificationKey() any

	// PublicJWK returns the publishable key, or false for symmetric signers
	// whose key material must never leave the process.
	PublicJWK() (JWK, bool)

	Validate() error
}

// NewSignerHS256 creates an HMAC-SHA256 signer from a raw secret.
func NewSignerHS256(kid string, secret []byte) (Signer, error) {
	return newHS256Signer(kid, secret)
}

// NewSignerEdDSA creates an EdDSA signer from PEM bytes.
// Ed25519 keys must be in PKCS8 format.
func NewSignerEdDSA(kid string, pemKey []byte) (Signer, error) {
	return newEdDSASigner(kid, pemKey)
}

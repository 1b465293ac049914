package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// VerifyOptions captures the expectations a Verifier enforces.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values of which the token must contain one. Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf/iat.
	Leeway time.Duration

	// Now overrides the clock used for time based checks. Defaults to time.Now.
	Now func() time.Time
}

// Verifier checks signatures and registered claims. It holds no mutable
// state of its own, so a single instance serves every request.
type Verifier struct {
	keys   *KeySet
	opts   VerifyOptions
	parser *jwt.Parser
}

// NewVerifier builds a Verifier over keys. Only algorithms present in the
// KeySet are accepted, which rules out "none" and alg confusion.
func NewVerifier(keys *KeySet, opts VerifyOptions) *Verifier {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(keys.Algorithms()),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(opts.Leeway),
		jwt.WithTimeFunc(opts.Now),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	return &Verifier{
		keys:   keys,
		opts:   opts,
		parser: jwt.NewParser(parserOpts...),
	}
}

// Verify validates the JWT string and returns its parsed Claims. Errors wrap
// one of the package sentinels so callers can classify them with errors.Is.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, v.keyFunc)
	if err != nil {
		return nil, classify(token, err)
	}
	if !token.Valid {
		return nil, ErrInvalidClaim
	}

	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return nil, err
	}

	return claims, nil
}

// Leeway is the clock skew tolerated on exp/nbf/iat. A token stays
// verifiable until exp plus Leeway.
func (v *Verifier) Leeway() time.Duration {
	return v.opts.Leeway
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: missing kid", ErrUnknownKID)
	}

	alg, key, err := v.keys.Lookup(kid)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
	}

	// A kid must only ever verify tokens of the algorithm it was issued for.
	if t.Method.Alg() != alg {
		return nil, fmt.Errorf("%w: kid %q is %s, token is %s", ErrAlgMismatch, kid, alg, t.Method.Alg())
	}
	return key, nil
}

// classify folds golang-jwt errors into our sentinels. The parser checks the
// signature before any claim, so an expired token with a bad signature is
// reported as a signature failure.
func classify(token *jwt.Token, err error) error {
	// Header and payload decoded when the signing method was resolved; any
	// later decode failure is in the signature segment.
	headerOK := token != nil && token.Method != nil

	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		if headerOK {
			return fmt.Errorf("%w: %w", ErrInvalidSig, err)
		}
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		if !headerOK {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if errors.Is(err, ErrUnknownKID) {
			return fmt.Errorf("%w: %w", ErrUnknownKID, err)
		}
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %w", ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %w", ErrIssuer, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}
}

package authsdk

import "errors"

// FailureKind classifies why an authentication step failed. Kinds are
// logged server side; only the refresh and logout endpoints echo a coarse
// kind back to the caller.
type FailureKind string

const (
	KindInvalidCredentials FailureKind = "INVALID_CREDENTIALS"
	KindMalformed          FailureKind = "MALFORMED"
	KindTampered           FailureKind = "TAMPERED"
	KindExpired            FailureKind = "EXPIRED"
	KindWrongType          FailureKind = "WRONG_TYPE"
	KindRevoked            FailureKind = "REVOKED"
	KindUnavailable        FailureKind = "UNAVAILABLE"
)

// AuthError is the sentinel type for one FailureKind. Services wrap the
// underlying cause as fmt.Errorf("%w: %w", authsdk.ErrExpired, cause).
type AuthError struct {
	Kind FailureKind
}

func (e *AuthError) Error() string {
	return "auth: " + string(e.Kind)
}

var (
	ErrInvalidCredentials = &AuthError{Kind: KindInvalidCredentials}
	ErrMalformed          = &AuthError{Kind: KindMalformed}
	ErrTampered           = &AuthError{Kind: KindTampered}
	ErrExpired            = &AuthError{Kind: KindExpired}
	ErrWrongType          = &AuthError{Kind: KindWrongType}
	ErrRevoked            = &AuthError{Kind: KindRevoked}
	ErrUnavailable        = &AuthError{Kind: KindUnavailable}
)

// KindOf returns the FailureKind carried by err, or "" when err is nil or
// carries none.
func KindOf(err error) FailureKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// PublicReason is the kind reported on the refresh and logout endpoints.
// WRONG_TYPE collapses into MALFORMED so callers cannot tell token types apart.
func (k FailureKind) PublicReason() FailureKind {
	if k == KindWrongType {
		return KindMalformed
	}
	return k
}

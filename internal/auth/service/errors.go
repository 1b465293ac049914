package service

import (
	"errors"

	"github.com/silverbridge/backend/pkg/authsdk"
)

// Authentication failures carry an authsdk kind so the HTTP layer can
// branch with errors.Is without importing the service internals.
var (
	ErrInvalidCredentials = authsdk.ErrInvalidCredentials
	ErrMalformed          = authsdk.ErrMalformed
	ErrTampered           = authsdk.ErrTampered
	ErrExpired            = authsdk.ErrExpired
	ErrWrongType          = authsdk.ErrWrongType
	ErrRevoked            = authsdk.ErrRevoked
	ErrUnavailable        = authsdk.ErrUnavailable
)

// Request errors for the account and phone verification flows.
var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrPhoneTaken         = errors.New("phone_taken")
	ErrPhoneNotVerified   = errors.New("phone_not_verified")
	ErrVerificationFailed = errors.New("verification_failed")
	ErrTooManyAttempts    = errors.New("too_many_attempts")
	ErrKakaoLinked        = errors.New("kakao_linked")
)

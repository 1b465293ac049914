package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	// OAuth2 error codes per RFC 6749 / RFC 6750
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeInvalidGrant   = "invalid_grant"
	ErrorCodeInvalidToken   = "invalid_token"
	ErrorCodeServerError    = "server_error"

	// SilverBridge specific codes
	ErrorCodeInsufficientRole   = "insufficient_role"
	ErrorCodeUnavailable        = "temporarily_unavailable"
	ErrorCodeConflict           = "conflict"
	ErrorCodeTooManyRequests    = "too_many_requests"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeVerificationFailed = "verification_failed"
	ErrorCodeNotFound           = "not_found"
)

// ============================================================================
// OAuth2Error
// ============================================================================

// OAuth2Error is the JSON error body every endpoint returns. It implements
// the error interface so the SDK client can hand it back unchanged.
type OAuth2Error struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine readable error code (e.g. "invalid_grant")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`

	// Reason is the coarse failure kind, set only by the refresh and
	// logout endpoints.
	Reason FailureKind `json:"reason,omitempty"`
}

// Error implements the error interface.
func (e *OAuth2Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Description, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WithReason returns a copy of e carrying reason.
func (e *OAuth2Error) WithReason(reason FailureKind) *OAuth2Error {
	cp := *e
	cp.Reason = reason
	return &cp
}

// WriteError writes e as a non-cacheable JSON response.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	h.Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned when the body is missing, undecodable or
	// fails validation.
	ErrInvalidRequest = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidGrant is the generic login and refresh failure. It never
	// says whether the account exists.
	ErrInvalidGrant = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidGrant,
		Description: "invalid credentials",
	}

	// ErrInvalidToken is returned by the request gate.
	ErrInvalidToken = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid or expired",
	}

	ErrInsufficientRole = &OAuth2Error{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeInsufficientRole,
		Description: "the caller does not hold a required role",
	}

	// ErrServiceUnavailable is returned when a dependency (account store or
	// revocation registry) could not answer in time.
	ErrServiceUnavailable = &OAuth2Error{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeUnavailable,
		Description: "the service is temporarily unavailable",
	}

	ErrPhoneTaken = &OAuth2Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeConflict,
		Description: "phone number already registered",
	}

	// ErrKakaoLinked is returned when the Kakao account, or the account the
	// phone number belongs to, is already linked.
	ErrKakaoLinked = &OAuth2Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeConflict,
		Description: "account is already linked to a Kakao account",
	}

	ErrVerificationFailed = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeVerificationFailed,
		Description: "verification code is wrong or expired",
	}

	ErrTooManyAttempts = &OAuth2Error{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeTooManyRequests,
		Description: "too many attempts",
	}

	// ErrRateLimited is returned when a caller has used up its request budget.
	ErrRateLimited = &OAuth2Error{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimited,
		Description: "too many requests, try again later",
	}

	ErrNotFound = &OAuth2Error{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "not found",
	}

	// ErrServerError is returned when the server hit an unexpected condition.
	ErrServerError = &OAuth2Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	// ErrMethodNotAllowed is returned when the HTTP method is not allowed.
	ErrMethodNotAllowed = &OAuth2Error{
		StatusCode:  http.StatusMethodNotAllowed,
		Code:        ErrorCodeInvalidRequest,
		Description: "method not allowed",
	}
)

// NewOAuth2Error creates a custom error body.
func NewOAuth2Error(statusCode int, code, description string) *OAuth2Error {
	return &OAuth2Error{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// errorFromResponse turns an unexpected response into an *OAuth2Error,
// keeping the server's error body when there is one.
func errorFromResponse(status int, body []byte) *OAuth2Error {
	var parsed OAuth2Error
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Code != "" {
		parsed.StatusCode = status
		return &parsed
	}
	return &OAuth2Error{
		StatusCode:  status,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("unexpected HTTP %d %s", status, http.StatusText(status)),
	}
}

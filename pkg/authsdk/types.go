package authsdk

import (
	"github.com/silverbridge/backend/pkg/jwtx"
)

// Header names used by the login and refresh endpoints alongside the JSON
// body, matching what mobile clients already read.
const (
	HeaderAuthorization = "Authorization"
	HeaderRefreshToken  = "Refresh-Token"
)

// ============================================================================
// Token Types
// ============================================================================

// LoginRequest is the body of POST /api/users/login.
type LoginRequest struct {
	PhoneNumber string `json:"phoneNumber" example:"010-1234-5678"`
	Password    string `json:"password" example:"secret123"`
}

// RefreshRequest is the optional body of POST /api/users/refresh and
// /api/users/logout. The Refresh-Token header takes precedence.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned from login and refresh.
type TokenResponse struct {
	// AccessToken is the short-lived JWT sent as a Bearer token
	AccessToken string `json:"accessToken"`

	// RefreshToken is single-use; every refresh returns a new one
	RefreshToken string `json:"refreshToken"`

	// AccessExpiresAt is the access token expiry in unix seconds
	AccessExpiresAt int64 `json:"accessExpiresAt"`

	// TokenType is always "Bearer"
	TokenType string `json:"tokenType"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int64 `json:"expiresIn"`
}

// ============================================================================
// Account Types
// ============================================================================

// JoinRequest is the body of POST /api/users/join.
type JoinRequest struct {
	Name        string `json:"name" example:"홍길동"`
	PhoneNumber string `json:"phoneNumber" example:"010-1234-5678"`
	Password    string `json:"password" example:"secret123"`
	// Birth is an ISO date, e.g. 1950-03-01.
	Birth  string `json:"birth,omitempty" example:"1950-03-01"`
	Region string `json:"region,omitempty" example:"Seoul"`
	// Role is MEMBER or NOK.
	Role string `json:"role" example:"MEMBER"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
	Birth       string `json:"birth,omitempty"`
	Region      string `json:"region,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// ============================================================================
// Social Login Types
// ============================================================================

// KakaoLoginRequest is the optional body of POST /api/users/social/kakao.
// The accessToken query parameter takes precedence.
type KakaoLoginRequest struct {
	AccessToken string `json:"accessToken"`
}

// SocialLoginResponse carries either a token pair for a registered account
// or a temp token for finishing registration.
type SocialLoginResponse struct {
	Registered bool `json:"registered"`

	// Tokens is set when Registered is true
	Tokens *TokenResponse `json:"tokens,omitempty"`

	// TempToken is set when Registered is false. It is good for one call
	// to /api/users/social/register-final.
	TempToken string `json:"tempToken,omitempty"`

	// TempExpiresAt is the temp token expiry in unix seconds
	TempExpiresAt int64 `json:"tempExpiresAt,omitempty"`

	Nickname string `json:"nickname,omitempty"`
}

// FinalRegisterRequest is the body of POST /api/users/social/register-final.
type FinalRegisterRequest struct {
	Name        string `json:"name" example:"홍길동"`
	PhoneNumber string `json:"phoneNumber" example:"010-1234-5678"`
	Birth       string `json:"birth,omitempty" example:"1950-03-01"`
	Region      string `json:"region,omitempty" example:"Seoul"`
	// Role is MEMBER or NOK.
	Role string `json:"role" example:"MEMBER"`
}

// SocialRegisterResponse is returned once a Kakao user is registered or
// linked to an existing account.
type SocialRegisterResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

// ============================================================================
// SMS Verification Types
// ============================================================================

type SendCodeRequest struct {
	PhoneNumber string `json:"phoneNumber" example:"010-1234-5678"`
}

type SendCodeResponse struct {
	// ExpiresIn is the code lifetime in seconds
	ExpiresIn int64 `json:"expiresIn"`
}

type VerifyCodeRequest struct {
	PhoneNumber string `json:"phoneNumber" example:"010-1234-5678"`
	Code        string `json:"code" example:"123456"`
}

type VerifyCodeResponse struct {
	Verified bool `json:"verified"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status ("ok" or "unavailable")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	Registry string `json:"registry"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set served at
// /.well-known/jwks.json. It is empty when tokens are HMAC signed.
type JWKSResponse jwtx.JWKS

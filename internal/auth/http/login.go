package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/silverbridge/backend/internal/auth/service"
	"github.com/silverbridge/backend/pkg/authsdk"
	"github.com/silverbridge/backend/pkg/httpx"
	"github.com/silverbridge/backend/pkg/slogx"
)

// LoginHandler serves POST /api/users/login.
type LoginHandler struct {
	Credentials *service.CredentialVerifier
	Issuer      *service.TokenIssuer
	Now         func() time.Time
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Exchanges a phone number and password for an access/refresh token pair.
//	@Description	The tokens are also returned in the Authorization and Refresh-Token headers.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.OAuth2Error	"invalid_request"
//	@Failure		401		{object}	authsdk.OAuth2Error	"invalid_grant"
//	@Failure		429		{object}	authsdk.OAuth2Error	"rate_limit_exceeded"
//	@Failure		503		{object}	authsdk.OAuth2Error	"temporarily_unavailable"
//	@Header			200		{string}	Authorization	"Bearer access token"
//	@Header			200		{string}	Refresh-Token	"refresh token"
//	@Router			/api/users/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.PhoneNumber == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	l := slogx.FromContext(r.Context())

	principal, err := h.Credentials.Verify(r.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		l.Info("login failed", "kind", authsdk.KindOf(err))
		if errors.Is(err, authsdk.ErrUnavailable) {
			authsdk.ErrServiceUnavailable.WriteError(w)
			return
		}
		authsdk.ErrInvalidGrant.WriteError(w)
		return
	}

	pair, err := h.Issuer.IssuePair(principal)
	if err != nil {
		l.Error("token issuance failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	l.Info("login succeeded", "user_id", principal.ID)
	writeTokens(w, pair, now(h.Now))
}

func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock()
	}
	return time.Now()
}

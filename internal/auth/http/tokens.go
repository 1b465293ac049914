package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/pkg/authsdk"
	"github.com/silverbridge/backend/pkg/httpx"
	"github.com/silverbridge/backend/pkg/slogx"
)

// writeTokens sends pair in the body and, for clients that read them from
// there, in the Authorization and Refresh-Token response headers.
func writeTokens(w http.ResponseWriter, pair domain.TokenPair, now time.Time) {
	setTokenHeaders(w, pair)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair, now))
}

func setTokenHeaders(w http.ResponseWriter, pair domain.TokenPair) {
	w.Header().Set(authsdk.HeaderAuthorization, "Bearer "+pair.AccessToken)
	w.Header().Set(authsdk.HeaderRefreshToken, pair.RefreshToken)
}

func tokenResponse(pair domain.TokenPair, now time.Time) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt.Unix(),
		TokenType:       "Bearer",
		ExpiresIn:       pair.ExpiresIn(now),
	}
}

// refreshTokenFromRequest reads the refresh token from the Refresh-Token
// header, falling back to a {"refreshToken": ...} body.
func refreshTokenFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h := strings.TrimSpace(r.Header.Get(authsdk.HeaderRefreshToken)); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			h = strings.TrimSpace(token)
		}
		return h, h != ""
	}

	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return "", false
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	return req.RefreshToken, req.RefreshToken != ""
}

// writeRefreshError maps a rotation or logout failure to a response. These
// are the only endpoints that tell the caller why, and only coarsely.
func writeRefreshError(w http.ResponseWriter, r *http.Request, err error) {
	kind := authsdk.KindOf(err)
	slogx.FromContext(r.Context()).Info("refresh token rejected", "kind", kind, "error", err)

	switch {
	case errors.Is(err, authsdk.ErrUnavailable):
		authsdk.ErrServiceUnavailable.WriteError(w)
	case kind != "":
		authsdk.ErrInvalidGrant.WithReason(kind.PublicReason()).WriteError(w)
	default:
		authsdk.ErrServerError.WriteError(w)
	}
}

package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/silverbridge/backend/pkg/authsdk"
	"github.com/silverbridge/backend/pkg/cryptox"
	"github.com/silverbridge/backend/pkg/jwtx"
	"github.com/silverbridge/backend/pkg/slogx"
)

// AccessValidator resolves an access token to its claims. Errors carry an
// authsdk failure kind.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, token string) (*jwtx.Claims, error)
}

// AuthnMiddleware is the request gate: it requires a valid access token and
// attaches the principal to the request context.
func AuthnMiddleware(v AccessValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w)
				log.Info("request rejected", "reason", "missing bearer token")
				return
			}

			claims, err := v.ValidateAccess(ctx, raw)
			if err != nil {
				kind := authsdk.KindOf(err)
				log.Warn("access token rejected",
					"kind", kind,
					"token_fp", cryptox.FingerprintToken(raw),
					"err", err,
				)
				if errors.Is(err, authsdk.ErrUnavailable) {
					authsdk.ErrServiceUnavailable.WriteError(w)
					return
				}
				writeBearerError(w)
				return
			}

			ctx = contextWithAuth(ctx, claims)
			ctx = slogx.WithContext(ctx, log.With("user_id", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
// The scheme is matched case-insensitively (RFC 7235 2.1).
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750-compliant error response for bearer auth. The body is the same
// for every failure kind.
func writeBearerError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	authsdk.ErrInvalidToken.WriteError(w)
}

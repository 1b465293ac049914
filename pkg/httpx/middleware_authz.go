package httpx

import (
	"net/http"
	"strings"

	"github.com/silverbridge/backend/pkg/authsdk"
	"github.com/silverbridge/backend/pkg/slogx"
)

// RequireAnyRole the caller must hold at least one of the provided roles.
// It must run after AuthnMiddleware.
func RequireAnyRole(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := PrincipalFromContext(r.Context())
			if principal.HasAnyRole(required...) {
				next.ServeHTTP(w, r)
				return
			}

			slogx.FromContext(r.Context()).Info("request forbidden",
				"required_roles", required,
				"roles", principal.Roles,
			)
			w.Header().Set("WWW-Authenticate",
				`Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
			authsdk.ErrInsufficientRole.WriteError(w)
		})
	}
}

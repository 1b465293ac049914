package authsdk

import (
	"context"
	"net/http"
)

// GetLiveness calls /livez.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return call[HealthResponse](ctx, c, request{method: http.MethodGet, path: "/livez", want: http.StatusOK})
}

// GetReadiness calls /readyz. A degraded service answers 503, which comes
// back as an error.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return call[HealthResponse](ctx, c, request{method: http.MethodGet, path: "/readyz", want: http.StatusOK})
}

// GetJWKS fetches the public signing keys. Load them into a jwtx.KeySet
// with AddJWKS to validate access tokens locally.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	return call[JWKSResponse](ctx, c, request{method: http.MethodGet, path: "/.well-known/jwks.json", want: http.StatusOK})
}

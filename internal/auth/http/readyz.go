package http

import (
	"context"
	"net/http"
	"time"

	"github.com/silverbridge/backend/internal/auth/revocation"
	"github.com/silverbridge/backend/internal/auth/store"
	"github.com/silverbridge/backend/pkg/authsdk"
	"github.com/silverbridge/backend/pkg/httpx"
	"github.com/silverbridge/backend/pkg/jwtx"
)

// pinger is implemented by registries backed by a remote service.
type pinger interface {
	Ping(ctx context.Context) error
}

// readinessTimeout bounds all dependency checks of one readiness request.
const readinessTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness check returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the account store, signer, and revocation registry
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *jwtx.KeyManager,
	registry revocation.Registry,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
			Registry: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(ctx); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if p, ok := registry.(pinger); ok {
			if err := p.Ping(ctx); err != nil {
				checks.Registry = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}

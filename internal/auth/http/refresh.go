package http

import (
	"net/http"
	"time"

	"github.com/silverbridge/backend/internal/auth/service"
	"github.com/silverbridge/backend/pkg/authsdk"
)

// RefreshHandler serves POST /api/users/refresh.
type RefreshHandler struct {
	Coordinator *service.RefreshCoordinator
	Now         func() time.Time
}

// ServeHTTP godoc
//
//	@Summary		Rotate a refresh token
//	@Description	Exchanges a refresh token for a new pair. The presented token is revoked and can never be used again.
//	@Description	On failure the reason field is one of EXPIRED, REVOKED, MALFORMED or TAMPERED.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			Refresh-Token	header		string					false	"Refresh token (preferred over the body)"
//	@Param			request			body		authsdk.RefreshRequest	false	"Refresh token"
//	@Success		200				{object}	authsdk.TokenResponse
//	@Failure		400				{object}	authsdk.OAuth2Error	"invalid_request"
//	@Failure		401				{object}	authsdk.OAuth2Error	"invalid_grant with reason"
//	@Failure		503				{object}	authsdk.OAuth2Error	"temporarily_unavailable"
//	@Router			/api/users/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, ok := refreshTokenFromRequest(w, r)
	if !ok {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.Coordinator.Rotate(r.Context(), token)
	if err != nil {
		writeRefreshError(w, r, err)
		return
	}

	writeTokens(w, pair, now(h.Now))
}

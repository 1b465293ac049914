package http

import (
	"net/http"

	"github.com/silverbridge/backend/internal/auth/service"
	"github.com/silverbridge/backend/pkg/authsdk"
)

// LogoutHandler serves POST /api/users/logout.
type LogoutHandler struct {
	Coordinator *service.RefreshCoordinator
}

// ServeHTTP godoc
//
//	@Summary		Log out
//	@Description	Revokes the presented refresh token. Access tokens stay valid until they expire.
//	@Tags			Users
//	@Accept			json
//	@Param			Refresh-Token	header	string					false	"Refresh token (preferred over the body)"
//	@Param			request			body	authsdk.RefreshRequest	false	"Refresh token"
//	@Success		204
//	@Failure		400	{object}	authsdk.OAuth2Error	"invalid_request"
//	@Failure		401	{object}	authsdk.OAuth2Error	"invalid_grant with reason"
//	@Failure		503	{object}	authsdk.OAuth2Error	"temporarily_unavailable"
//	@Router			/api/users/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, ok := refreshTokenFromRequest(w, r)
	if !ok {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Coordinator.Logout(r.Context(), token); err != nil {
		writeRefreshError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

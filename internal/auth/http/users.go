package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/service"
	"github.com/silverbridge/backend/internal/auth/store"
	"github.com/silverbridge/backend/pkg/authsdk"
	"github.com/silverbridge/backend/pkg/httpx"
	"github.com/silverbridge/backend/pkg/slogx"
)

// JoinHandler serves POST /api/users/join.
type JoinHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Create an account
//	@Description	Registers a MEMBER or NOK account. The phone number must have been verified through /api/sms when verification is required.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.JoinRequest	true	"Account details"
//	@Success		201		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.OAuth2Error	"invalid_request"
//	@Failure		409		{object}	authsdk.OAuth2Error	"conflict"
//	@Router			/api/users/join [post].
func (h *JoinHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.JoinRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.UserService.Register(r.Context(), service.JoinParams{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Birth:       req.Birth,
		Region:      req.Region,
		Role:        req.Role,
	})
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusCreated, userView(user))
	case errors.Is(err, service.ErrInvalidRequest):
		desc := strings.TrimPrefix(err.Error(), service.ErrInvalidRequest.Error()+": ")
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, desc).WriteError(w)
	case errors.Is(err, service.ErrPhoneNotVerified):
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "phone number is not verified").WriteError(w)
	case errors.Is(err, service.ErrPhoneTaken):
		authsdk.ErrPhoneTaken.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("join failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

// MeHandler serves GET /api/users/me.
type MeHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Current account
//	@Description	Returns the account the access token was issued to.
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	authsdk.OAuth2Error	"invalid_token"
//	@Failure		403	{object}	authsdk.OAuth2Error	"insufficient_role"
//	@Failure		404	{object}	authsdk.OAuth2Error	"not_found"
//	@Router			/api/users/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.UserService.GetUserByID(r.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			authsdk.ErrNotFound.WriteError(w)
			return
		}
		slogx.FromContext(r.Context()).Error("account lookup failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userView(user))
}

func userView(u domain.User) authsdk.UserResponse {
	resp := authsdk.UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Role:        string(u.Role),
		Region:      u.Region,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.Birth != nil {
		resp.Birth = u.Birth.Format("2006-01-02")
	}
	return resp
}

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

var errInvalidTempToken = authsdk.NewOAuth2Error(http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken,
	"the temp token is missing, invalid, expired or already used")

// SocialHandler serves the Kakao login endpoints.
type SocialHandler struct {
	Social *service.SocialAuthService
	Now    func() time.Time
}

// HandleKakaoLogin godoc
//
//	@Summary		Log in with Kakao
//	@Description	Exchanges a Kakao access token for a token pair when the Kakao account is linked.
//	@Description	Otherwise returns a short-lived temp token for /api/users/social/register-final.
//	@Tags			Social
//	@Accept			json
//	@Produce		json
//	@Param			accessToken	query		string						false	"Kakao access token"
//	@Param			request		body		authsdk.KakaoLoginRequest	false	"Kakao access token, when not in the query"
//	@Success		200			{object}	authsdk.SocialLoginResponse
//	@Failure		400			{object}	authsdk.OAuth2Error	"invalid_request"
//	@Failure		401			{object}	authsdk.OAuth2Error	"invalid_grant"
//	@Failure		429			{object}	authsdk.OAuth2Error	"rate_limit_exceeded"
//	@Failure		503			{object}	authsdk.OAuth2Error	"temporarily_unavailable"
//	@Header			200			{string}	Authorization	"Bearer access token, registered accounts only"
//	@Header			200			{string}	Refresh-Token	"refresh token, registered accounts only"
//	@Router			/api/users/social/kakao [post].
func (h *SocialHandler) HandleKakaoLogin(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("accessToken"))
	if token == "" {
		var req authsdk.KakaoLoginRequest
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		token = strings.TrimSpace(req.AccessToken)
	}

	l := slogx.FromContext(r.Context())

	res, err := h.Social.LoginOrJoin(r.Context(), token)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidRequest):
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		l.Info("kakao login rejected", "error", err)
		authsdk.ErrInvalidGrant.WriteError(w)
		return
	case errors.Is(err, service.ErrUnavailable):
		l.Warn("kakao login unavailable", "error", err)
		authsdk.ErrServiceUnavailable.WriteError(w)
		return
	default:
		l.Error("kakao login failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	resp := authsdk.SocialLoginResponse{Registered: res.Registered, Nickname: res.Nickname}
	if res.Registered {
		tokens := tokenResponse(res.Pair, now(h.Now))
		resp.Tokens = &tokens
		setTokenHeaders(w, res.Pair)
	} else {
		resp.TempToken = res.TempToken
		resp.TempExpiresAt = res.TempExpiresAt.Unix()
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRegisterFinal godoc
//
//	@Summary		Finish Kakao registration
//	@Description	Spends the temp token from /api/users/social/kakao on creating an account, or on linking the
//	@Description	Kakao account to the existing account that owns the phone number. Linking needs a phone number
//	@Description	verified through /api/sms. The temp token works once.
//	@Tags			Social
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.FinalRegisterRequest	true	"Account details"
//	@Success		200		{object}	authsdk.SocialRegisterResponse
//	@Failure		400		{object}	authsdk.OAuth2Error	"invalid_request"
//	@Failure		401		{object}	authsdk.OAuth2Error	"invalid_token"
//	@Failure		409		{object}	authsdk.OAuth2Error	"conflict"
//	@Failure		429		{object}	authsdk.OAuth2Error	"rate_limit_exceeded"
//	@Failure		503		{object}	authsdk.OAuth2Error	"temporarily_unavailable"
//	@Header			200		{string}	Authorization	"Bearer access token"
//	@Header			200		{string}	Refresh-Token	"refresh token"
//	@Router			/api/users/social/register-final [post].
func (h *SocialHandler) HandleRegisterFinal(w http.ResponseWriter, r *http.Request) {
	tempToken, ok := httpx.BearerToken(r)
	if !ok {
		writeTempTokenError(w)
		return
	}

	var req authsdk.FinalRegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	l := slogx.FromContext(r.Context())

	user, pair, err := h.Social.CompleteRegistration(r.Context(), tempToken, service.FinalRegisterParams{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Birth:       req.Birth,
		Region:      req.Region,
		Role:        req.Role,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUnavailable):
		l.Warn("social registration unavailable", "error", err)
		authsdk.ErrServiceUnavailable.WriteError(w)
		return
	case authsdk.KindOf(err) != "":
		l.Info("temp token rejected", "kind", authsdk.KindOf(err), "error", err)
		writeTempTokenError(w)
		return
	case errors.Is(err, service.ErrInvalidRequest):
		desc := strings.TrimPrefix(err.Error(), service.ErrInvalidRequest.Error()+": ")
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, desc).WriteError(w)
		return
	case errors.Is(err, service.ErrPhoneNotVerified):
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "phone number is not verified").WriteError(w)
		return
	case errors.Is(err, service.ErrPhoneTaken):
		authsdk.ErrPhoneTaken.WriteError(w)
		return
	case errors.Is(err, service.ErrKakaoLinked):
		authsdk.ErrKakaoLinked.WriteError(w)
		return
	default:
		l.Error("social registration failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	setTokenHeaders(w, pair)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SocialRegisterResponse{
		User:   userView(user),
		Tokens: tokenResponse(pair, now(h.Now)),
	})
}

func writeTempTokenError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	errInvalidTempToken.WriteError(w)
}

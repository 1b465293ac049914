package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/silverbridge/backend/internal/auth/service"
	"github.com/silverbridge/backend/pkg/authsdk"
	"github.com/silverbridge/backend/pkg/httpx"
	"github.com/silverbridge/backend/pkg/slogx"
)

// SMSHandler serves the phone verification endpoints.
type SMSHandler struct {
	Phones *service.PhoneVerificationService
}

// HandleSend godoc
//
//	@Summary		Send a verification code
//	@Description	Texts a six digit code to the phone number. A new request replaces any earlier code.
//	@Tags			SMS
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SendCodeRequest	true	"Phone number"
//	@Success		202		{object}	authsdk.SendCodeResponse
//	@Failure		400		{object}	authsdk.OAuth2Error	"invalid_request"
//	@Router			/api/sms/send [post].
func (h *SMSHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SendCodeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	ttl, err := h.Phones.SendCode(r.Context(), req.PhoneNumber)
	if err != nil {
		writeSMSError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, authsdk.SendCodeResponse{ExpiresIn: int64(ttl / time.Second)})
}

// HandleVerify godoc
//
//	@Summary		Verify a code
//	@Description	Confirms the code sent to the phone number. Too many wrong codes lock the verification until a new code is sent.
//	@Tags			SMS
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyCodeRequest	true	"Phone number and code"
//	@Success		200		{object}	authsdk.VerifyCodeResponse
//	@Failure		400		{object}	authsdk.OAuth2Error	"verification_failed"
//	@Failure		429		{object}	authsdk.OAuth2Error	"too_many_requests"
//	@Router			/api/sms/verify [post].
func (h *SMSHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyCodeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Phones.VerifyCode(r.Context(), req.PhoneNumber, req.Code); err != nil {
		writeSMSError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyCodeResponse{Verified: true})
}

func writeSMSError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		authsdk.ErrInvalidRequest.WriteError(w)
	case errors.Is(err, service.ErrVerificationFailed):
		authsdk.ErrVerificationFailed.WriteError(w)
	case errors.Is(err, service.ErrTooManyAttempts):
		authsdk.ErrTooManyAttempts.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("phone verification failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

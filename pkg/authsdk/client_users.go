package authsdk

import (
	"context"
	"net/http"
)

// Join registers a new account.
func (c *SDKClient) Join(ctx context.Context, req JoinRequest) (*UserResponse, error) {
	return call[UserResponse](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/users/join",
		body:   req,
		want:   http.StatusCreated,
	})
}

// Login exchanges a phone number and password for a token pair.
func (c *SDKClient) Login(ctx context.Context, phoneNumber, password string) (*TokenResponse, error) {
	return call[TokenResponse](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/users/login",
		body:   LoginRequest{PhoneNumber: phoneNumber, Password: password},
		want:   http.StatusOK,
	})
}

// Refresh rotates refreshToken. The token passed in is dead afterwards
// whether or not the call succeeds.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return call[TokenResponse](ctx, c, request{
		method:  http.MethodPost,
		path:    "/api/users/refresh",
		headers: map[string]string{HeaderRefreshToken: refreshToken},
		want:    http.StatusOK,
	})
}

// Logout revokes refreshToken.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	_, err := c.send(ctx, request{
		method:  http.MethodPost,
		path:    "/api/users/logout",
		headers: map[string]string{HeaderRefreshToken: refreshToken},
		want:    http.StatusNoContent,
	})
	return err
}

// Me returns the account the access token was issued to.
func (c *SDKClient) Me(ctx context.Context, accessToken string) (*UserResponse, error) {
	return call[UserResponse](ctx, c, request{
		method:  http.MethodGet,
		path:    "/api/users/me",
		headers: map[string]string{HeaderAuthorization: "Bearer " + accessToken},
		want:    http.StatusOK,
	})
}

// KakaoLogin signs in with a Kakao access token. For a Kakao user without
// an account the response carries a temp token instead of a pair.
func (c *SDKClient) KakaoLogin(ctx context.Context, kakaoAccessToken string) (*SocialLoginResponse, error) {
	return call[SocialLoginResponse](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/users/social/kakao",
		body:   KakaoLoginRequest{AccessToken: kakaoAccessToken},
		want:   http.StatusOK,
	})
}

// RegisterFinal spends tempToken on creating or linking the account.
func (c *SDKClient) RegisterFinal(ctx context.Context, tempToken string, req FinalRegisterRequest) (*SocialRegisterResponse, error) {
	return call[SocialRegisterResponse](ctx, c, request{
		method:  http.MethodPost,
		path:    "/api/users/social/register-final",
		body:    req,
		headers: map[string]string{HeaderAuthorization: "Bearer " + tempToken},
		want:    http.StatusOK,
	})
}

// SendCode asks the service to text a verification code to phoneNumber.
func (c *SDKClient) SendCode(ctx context.Context, phoneNumber string) (*SendCodeResponse, error) {
	return call[SendCodeResponse](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/sms/send",
		body:   SendCodeRequest{PhoneNumber: phoneNumber},
		want:   http.StatusAccepted,
	})
}

// VerifyCode checks a code previously sent with SendCode.
func (c *SDKClient) VerifyCode(ctx context.Context, phoneNumber, code string) error {
	_, err := call[VerifyCodeResponse](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/sms/verify",
		body:   VerifyCodeRequest{PhoneNumber: phoneNumber, Code: code},
		want:   http.StatusOK,
	})
	return err
}

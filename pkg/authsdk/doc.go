/*
Package authsdk holds the wire contract of the SilverBridge auth service:
request and response types, the failure-kind taxonomy and a small client.

# Failure kinds

Every authentication failure carries one FailureKind:

	INVALID_CREDENTIALS  login with an unknown phone number or wrong password
	MALFORMED            token is not a structurally valid JWT for this issuer
	TAMPERED             signature does not verify, or the kid/alg is unknown
	EXPIRED              exp is in the past
	WRONG_TYPE           an access token where a refresh token was expected (or vice versa)
	REVOKED              refresh token was rotated away or logged out
	UNAVAILABLE          account store or revocation registry did not answer in time

Server code wraps the matching sentinel and branches with errors.Is:

	if errors.Is(err, authsdk.ErrRevoked) { ... }
	kind := authsdk.KindOf(err)

# Client

	client := authsdk.NewSDKClient("https://auth.example.com")

	tokens, err := client.Login(ctx, "010-1234-5678", "secret123")
	me, err := client.Me(ctx, tokens.AccessToken)

	// Refresh tokens are single use: keep the returned pair.
	tokens, err = client.Refresh(ctx, tokens.RefreshToken)

	err = client.Logout(ctx, tokens.RefreshToken)

Errors returned by the server come back as *OAuth2Error. Refresh and
logout failures set Reason to one of EXPIRED, REVOKED, MALFORMED or
TAMPERED.
*/
package authsdk

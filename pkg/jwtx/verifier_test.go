package jwtx_test

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/silverbridge/backend/pkg/jwtx"
)

var (
	fixedNow = time.Unix(1_700_000_000, 0)
	secret   = bytes.Repeat([]byte{0x42}, 32)
	alice    = jwtx.Principal{ID: "alice", Roles: []string{"ROLE_MEMBER"}}
)

func clock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func newManager(t *testing.T, alg string, now *time.Time) *jwtx.KeyManager {
	t.Helper()
	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Algorithm: alg,
		KeyID:     "kid-1",
		Secret:    secret,
		Issuer:    "silverbridge-auth",
		Audience:  []string{"silverbridge-api"},
		Now:       clock(now),
	})
	require.NoError(t, err)
	return km
}

func sign(t *testing.T, km *jwtx.KeyManager, c jwtx.Claims) string {
	t.Helper()
	tok, err := km.Signer.Sign(c)
	require.NoError(t, err)
	return tok
}

func TestVerify_RoundTrip(t *testing.T) {
	for _, alg := range []string{jwtx.AlgorithmHS256, jwtx.AlgorithmEdDSA} {
		t.Run(alg, func(t *testing.T) {
			now := fixedNow
			km := newManager(t, alg, &now)

			c := jwtx.NewAccessClaims(alice, 15*time.Minute, "silverbridge-auth", []string{"silverbridge-api"}, now)
			tok := sign(t, km, c)

			got, err := km.Verifier.Verify(tok)
			require.NoError(t, err)
			require.Equal(t, "alice", got.Subject)
			require.Equal(t, jwtx.TokenTypeAccess, got.Type)
			require.Equal(t, []string{"ROLE_MEMBER"}, got.Roles)
			require.Equal(t, c.ID, got.ID)
			require.True(t, now.Add(15*time.Minute).Equal(got.ExpiresAtTime()))
		})
	}
}

func TestVerify_KidHeader(t *testing.T) {
	now := fixedNow
	km := newManager(t, jwtx.AlgorithmHS256, &now)
	tok := sign(t, km, jwtx.NewRefreshClaims(alice, time.Hour, "silverbridge-auth", nil, now))

	parsed, _, err := jwt.NewParser().ParseUnverified(tok, &jwtx.Claims{})
	require.NoError(t, err)
	require.Equal(t, "kid-1", parsed.Header["kid"])
	require.Equal(t, "HS256", parsed.Header["alg"])
}

func TestVerify_EverySignatureMutationIsRejected(t *testing.T) {
	for _, alg := range []string{jwtx.AlgorithmHS256, jwtx.AlgorithmEdDSA} {
		t.Run(alg, func(t *testing.T) {
			now := fixedNow
			km := newManager(t, alg, &now)
			tok := sign(t, km, jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", []string{"silverbridge-api"}, now))

			sigStart := strings.LastIndex(tok, ".") + 1
			for i := sigStart; i < len(tok); i++ {
				b := []byte(tok)
				if b[i] == 'A' {
					b[i] = 'B'
				} else {
					b[i] = 'A'
				}
				_, err := km.Verifier.Verify(string(b))
				require.ErrorIs(t, err, jwtx.ErrInvalidSig, "position %d", i)
			}
		})
	}
}

func TestVerify_PayloadTamperIsRejected(t *testing.T) {
	now := fixedNow
	km := newManager(t, jwtx.AlgorithmHS256, &now)
	tok := sign(t, km, jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", []string{"silverbridge-api"}, now))

	parts := strings.Split(tok, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), `"ROLE_MEMBER"`, `"ROLE_NOK"`, 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = km.Verifier.Verify(strings.Join(parts, "."))
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerify_Malformed(t *testing.T) {
	now := fixedNow
	km := newManager(t, jwtx.AlgorithmHS256, &now)

	for _, tok := range []string{
		"",
		"garbage",
		"a.b",
		"a.b.c.d",
		"!!!.e30.sig",
		base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256"}`)) + ".!!!.sig",
		base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"XYZ","kid":"kid-1"}`)) + ".e30.c2ln",
	} {
		_, err := km.Verifier.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrMalformed, "token %q", tok)
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	now := fixedNow
	km := newManager(t, jwtx.AlgorithmHS256, &now)
	tok := sign(t, km, jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", []string{"silverbridge-api"}, fixedNow))

	now = fixedNow.Add(time.Minute - time.Second)
	_, err := km.Verifier.Verify(tok)
	require.NoError(t, err)

	now = fixedNow.Add(time.Minute)
	_, err = km.Verifier.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerify_Leeway(t *testing.T) {
	now := fixedNow
	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmHS256,
		KeyID:     "kid-1",
		Secret:    secret,
		Issuer:    "silverbridge-auth",
		Leeway:    5 * time.Second,
		Now:       clock(&now),
	})
	require.NoError(t, err)
	tok := sign(t, km, jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", nil, fixedNow))

	now = fixedNow.Add(time.Minute + 4*time.Second)
	_, err = km.Verifier.Verify(tok)
	require.NoError(t, err)

	now = fixedNow.Add(time.Minute + 5*time.Second)
	_, err = km.Verifier.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerify_NotYetValid(t *testing.T) {
	now := fixedNow
	km := newManager(t, jwtx.AlgorithmHS256, &now)
	tok := sign(t, km, jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", []string{"silverbridge-api"}, fixedNow.Add(time.Hour)))

	_, err := km.Verifier.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrNotYetValid)
}

func TestVerify_UnknownKID(t *testing.T) {
	now := fixedNow
	km := newManager(t, jwtx.AlgorithmHS256, &now)

	other, err := jwtx.NewSignerHS256("kid-other", secret)
	require.NoError(t, err)
	tok, err := other.Sign(jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", []string{"silverbridge-api"}, now))
	require.NoError(t, err)

	_, err = km.Verifier.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
}

func TestVerify_MissingKID(t *testing.T) {
	now := fixedNow
	km := newManager(t, jwtx.AlgorithmHS256, &now)

	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", []string{"silverbridge-api"}, now))
	tok, err := raw.SignedString(secret)
	require.NoError(t, err)

	_, err = km.Verifier.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
}

func TestVerify_AlgNoneRejected(t *testing.T) {
	now := fixedNow
	km := newManager(t, jwtx.AlgorithmHS256, &now)

	raw := jwt.NewWithClaims(jwt.SigningMethodNone, jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", []string{"silverbridge-api"}, now))
	raw.Header["kid"] = "kid-1"
	tok, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = km.Verifier.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerify_AlgorithmConfusion(t *testing.T) {
	now := fixedNow
	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Algorithm:      jwtx.AlgorithmEdDSA,
		KeyID:          "ed-1",
		RetiredSecrets: map[string][]byte{"hs-old": secret},
		Issuer:         "silverbridge-auth",
		Now:            clock(&now),
	})
	require.NoError(t, err)

	// An HS256 token claiming the EdDSA kid must not be checked against it.
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", nil, now))
	raw.Header["kid"] = "ed-1"
	tok, err := raw.SignedString(secret)
	require.NoError(t, err)

	_, err = km.Verifier.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	require.ErrorIs(t, err, jwtx.ErrAlgMismatch)
}

func TestVerify_RetiredKeyStillVerifies(t *testing.T) {
	now := fixedNow
	oldSecret := bytes.Repeat([]byte{0x07}, 32)

	old, err := jwtx.NewSignerHS256("kid-0", oldSecret)
	require.NoError(t, err)
	tok, err := old.Sign(jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", nil, now))
	require.NoError(t, err)

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Algorithm:      jwtx.AlgorithmHS256,
		KeyID:          "kid-1",
		Secret:         secret,
		RetiredSecrets: map[string][]byte{"kid-0": oldSecret},
		Issuer:         "silverbridge-auth",
		Now:            clock(&now),
	})
	require.NoError(t, err)

	got, err := km.Verifier.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Subject)
}

func TestVerify_IssuerAndAudience(t *testing.T) {
	now := fixedNow
	km := newManager(t, jwtx.AlgorithmHS256, &now)

	tok := sign(t, km, jwtx.NewAccessClaims(alice, time.Minute, "someone-else", []string{"silverbridge-api"}, now))
	_, err := km.Verifier.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrIssuer)

	tok = sign(t, km, jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", []string{"other-api"}, now))
	_, err = km.Verifier.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrAudience)
}

func TestVerify_ExpirationRequired(t *testing.T) {
	now := fixedNow
	km := newManager(t, jwtx.AlgorithmHS256, &now)

	c := jwtx.NewAccessClaims(alice, time.Minute, "silverbridge-auth", []string{"silverbridge-api"}, now)
	c.ExpiresAt = nil
	tok := sign(t, km, c)

	_, err := km.Verifier.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
}

//go:build e2e

package auth_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/silverbridge/backend/internal/auth/app"
	"github.com/silverbridge/backend/pkg/authsdk"
	"github.com/silverbridge/backend/pkg/cryptox"
	"github.com/silverbridge/backend/pkg/jwtx"
)

/*
 * Common helpers for auth service end-to-end tests. Each test starts a real
 * redis in a container and runs one or more replicas of the service in
 * process against it, sharing the signing key and the pepper the way a
 * multi-replica deployment would.
 */

const (
	issuer   = "silverbridge-auth"
	audience = "silverbridge-api"
	keyID    = "silverbridge-e2e-key"

	memberName     = "홍길동"
	memberPhone    = "010-1234-5678"
	memberPassword = "secret123"
)

// cluster is the shared state of a set of replicas.
type cluster struct {
	redisAddr string
	keyFile   string
	pepper    string
}

// setupCluster starts redis and writes the key material every replica loads.
func setupCluster(t *testing.T) *cluster {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	dir := t.TempDir()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	keyFile := filepath.Join(dir, "signing.pem")
	require.NoError(t, os.WriteFile(keyFile, pemKey, 0o600))

	return &cluster{
		redisAddr: fmt.Sprintf("%s:%s", host, port.Port()),
		keyFile:   keyFile,
		pepper:    filepath.Join(dir, "pepper"),
	}
}

// startReplica runs one service instance and returns its SDK client.
// Replicas share redis, the signing key and the pepper but each has its own
// SQLite file.
func (c *cluster) startReplica(t *testing.T) (*authsdk.SDKClient, string) {
	t.Helper()

	cfg := app.Config{
		Issuer:               issuer,
		Audience:             []string{audience},
		Algorithm:            jwtx.AlgorithmEdDSA,
		KeyID:                keyID,
		PrivateKeyFile:       c.keyFile,
		AccessTTL:            jwtx.DefaultAccessTokenTTL,
		RefreshTTL:           jwtx.DefaultRefreshTokenTTL,
		TempTTL:              jwtx.DefaultTempTokenTTL,
		RevocationBackend:    app.BackendRedis,
		RegistryTimeout:      time.Second,
		AccountLookupTimeout: 2 * time.Second,
		RedisAddr:            c.redisAddr,
		RedisKeyPrefix:       "e2e:revoked:",
		DatabaseFile:         filepath.Join(t.TempDir(), "auth.db"),
		PepperFile:           c.pepper,
		SMSCodeTTL:           3 * time.Minute,
		SMSMaxAttempts:       5,
		KakaoAPIURL:          "https://kapi.kakao.com",
		KakaoTimeout:         time.Second,
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "json",
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
	}

	application, err := app.New(cfg)
	require.NoError(t, err, "replica should start")

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		if err := application.Shutdown(); err != nil {
			t.Logf("replica shutdown: %v", err)
		}
	})

	return authsdk.NewSDKClient(srv.URL), srv.URL
}

// joinMember registers the default member account on a replica.
func joinMember(t *testing.T, client *authsdk.SDKClient) *authsdk.UserResponse {
	t.Helper()

	user, err := client.Join(t.Context(), authsdk.JoinRequest{
		Name:        memberName,
		PhoneNumber: memberPhone,
		Password:    memberPassword,
		Birth:       "1950-03-01",
		Region:      "Seoul",
		Role:        "MEMBER",
	})
	require.NoError(t, err, "join should succeed")
	require.NotEmpty(t, user.ID)
	return user
}

// login authenticates the default member account.
func login(t *testing.T, client *authsdk.SDKClient) *authsdk.TokenResponse {
	t.Helper()

	tokens, err := client.Login(t.Context(), memberPhone, memberPassword)
	require.NoError(t, err, "login should succeed")
	assertTokenResponse(t, tokens)
	return tokens
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *authsdk.TokenResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "Access token should not be empty")
	require.NotEmpty(t, resp.RefreshToken, "Refresh token should not be empty")
	require.Equal(t, "Bearer", resp.TokenType, "Token type should be Bearer")
	require.Positive(t, resp.AccessExpiresAt)
}

// requireOAuthError asserts err is an error body with the given status and
// returns it for further checks.
func requireOAuthError(t *testing.T, err error, status int) *authsdk.OAuth2Error {
	t.Helper()
	require.Error(t, err)

	var oauthErr *authsdk.OAuth2Error
	require.True(t, errors.As(err, &oauthErr), "expected an error body, got: %v", err)
	require.Equal(t, status, oauthErr.StatusCode, "unexpected status: %v", oauthErr)
	return oauthErr
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

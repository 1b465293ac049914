package kakao_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/silverbridge/backend/internal/auth/kakao"
)

func kakaoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/user/me" || r.Header.Get("Authorization") != "Bearer kakao-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchProfile(t *testing.T) {
	t.Parallel()

	srv := kakaoServer(t, http.StatusOK,
		`{"id": 4242, "connected_at": "2024-01-01T00:00:00Z", "properties": {"nickname": "앨리스", "profile_image": "http://img"}}`)
	client := kakao.NewClient(srv.URL+"/", time.Second)

	p, err := client.FetchProfile(context.Background(), "kakao-token")
	require.NoError(t, err)
	require.EqualValues(t, 4242, p.ID)
	require.Equal(t, "앨리스", p.Nickname())
	require.Equal(t, "http://img", p.Properties.ProfileImage)

	_, err = client.FetchProfile(context.Background(), "someone-else")
	require.ErrorIs(t, err, kakao.ErrTokenRejected)
}

func TestFetchProfile_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"forbidden", http.StatusForbidden, `{}`, kakao.ErrTokenRejected},
		{"server error", http.StatusBadGateway, `{}`, kakao.ErrUnavailable},
		{"garbage", http.StatusOK, `not json`, kakao.ErrUnavailable},
		{"no id", http.StatusOK, `{"properties": {}}`, kakao.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := kakaoServer(t, tt.status, tt.body)
			_, err := kakao.NewClient(srv.URL, time.Second).FetchProfile(context.Background(), "kakao-token")
			require.ErrorIs(t, err, tt.want)
		})
	}

	// Nothing listening.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	_, err := kakao.NewClient(srv.URL, time.Second).FetchProfile(context.Background(), "kakao-token")
	require.ErrorIs(t, err, kakao.ErrUnavailable)
}

func TestProfile_NicknameFallback(t *testing.T) {
	var p kakao.Profile
	require.Equal(t, "카카오 사용자", p.Nickname())
}
